// Package kbsstub is a minimal in-memory key broker for tests and local
// development.
//
// Endpoints:
//
//	POST /kbs/v0/register_workload  store a policy registration
//	POST /rvp/registration          store a reference measurement
//	POST /kbs/v0/auth               open a session, answer with a nonce
//	POST /kbs/v0/attest             release the secret as a JWE envelope
//	GET  /livez, /readyz            health checks
//
// The stub does not verify hardware evidence. With binding checks enabled it
// rejects SNP reports whose report data is not
// cryptoutils.ReportData(nonce, n, e) for the session.
package kbsstub
