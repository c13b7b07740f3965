// Package storage provides the resource stores a key broker releases secrets
// from.
//
// Resources are addressed by repository/type/tag paths (see
// interfaces.ResourcePath). Stores are selected by location URI:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - file:///var/lib/kbs/resources
//   - s3://bucket-name/prefix/?region=us-west-2&endpoint=minio.local:9000
//   - vault://vault.example.com:8200/secret/kbs?tls=false
//   - ipfs://127.0.0.1:5001/kbs
//
// Several locations combine into a MultiStore, which reads from the first
// store that has a resource and writes to every available one.
package storage
