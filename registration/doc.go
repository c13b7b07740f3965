// Package registration builds the payloads a workload owner posts to the
// broker before the workload attests.
//
// Both payload shapes carry the reference measurement as a string holding
// serialized JSON, not as a nested object:
//
//	{"reference": "{\"measurement\":\"2a00...18\"}"}
//
// The measurement is lowercase hex.
package registration
