/*
Package clients provides the client library for the document encryption
service API.

DocumentClient wraps every endpoint of the service: uploading documents for
encryption, downloading ciphertext, fetching recovery metadata, and
service-side decryption. It implements api.EncryptionProvider, and a
testify-backed MockEncryptionProvider is included for tests of code built
on top of the client.

# Recovery Flow

The Recover helper runs the complete self-service recovery flow against a
single document: it reads the escrowed nonce and key backup from the info
endpoint, downloads the ciphertext, and sends all three to the decrypt
endpoint, returning the original plaintext.

# Example Usage

	client := clients.NewDocumentClient("http://localhost:8000", 10*time.Second)

	// Encrypt and store a document
	resp, err := client.Encrypt("report.pdf", content)
	if err != nil {
	    log.Fatal(err)
	}

	// Later: recover the plaintext using the escrowed key material
	plaintext, err := client.Recover(resp.DocumentID)
*/
package clients
