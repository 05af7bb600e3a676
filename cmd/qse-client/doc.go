// Package main (cmd/qse-client) implements a client for the document
// encryption service.
//
// The client provides command-line tools for the full document lifecycle:
//
//	encrypt  - Upload a file for encryption. The service encrypts it with a
//	           fresh AES-256-GCM key and prints the response, including the
//	           document identifier and download URL.
//
//	download - Fetch the stored ciphertext blob for a document identifier.
//
//	info     - Print the recovery metadata for a document: the base64 nonce,
//	           the escrowed key backup, and the compliance snapshot frozen
//	           at encryption time.
//
//	recover  - Run the full recovery flow: fetch the metadata, download the
//	           ciphertext, and have the service decrypt it with the escrowed
//	           key. Writes the plaintext to the output path or stdout.
//
// The recovery flow exists because the per-document key is escrowed in the
// stored metadata: no material beyond the document identifier is needed to
// get the plaintext back.
package main
