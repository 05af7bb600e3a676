package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/quantumsafe-io/qse-backend/api"
	"github.com/quantumsafe-io/qse-backend/api/clients"
	"github.com/urfave/cli/v2"
)

var flagServerAddr = &cli.StringFlag{
	Name:    "server-addr",
	Value:   "http://127.0.0.1:8000",
	EnvVars: []string{"QSE_SERVER_ADDR"},
	Usage:   "Encryption service address to request",
}
var flagFile = &cli.StringFlag{
	Name:     "file",
	Required: true,
	Usage:    "Path of the document to encrypt",
}
var flagDocumentID = &cli.StringFlag{
	Name:     "id",
	Required: true,
	Usage:    "Document identifier returned by encrypt",
}
var flagOutput = &cli.StringFlag{
	Name:  "out",
	Usage: "Output path; stdout when omitted",
}

func main() {
	app := &cli.App{
		Name:  "qse-client",
		Usage: "Encrypt, download, and recover documents through the encryption service",
		Flags: []cli.Flag{
			flagServerAddr,
		},
		Commands: []*cli.Command{
			{
				Name:        "encrypt",
				Usage:       "Upload a document for encryption",
				Description: "Uploads the file and prints the encrypt response, including the document identifier.",
				Flags:       []cli.Flag{flagFile},
				Action: func(cCtx *cli.Context) error {
					return NewClientConfig(cCtx).Encrypt(cCtx.String(flagFile.Name))
				},
			},
			{
				Name:        "download",
				Usage:       "Download the stored ciphertext",
				Description: "Fetches the encrypted blob for a document identifier.",
				Flags:       []cli.Flag{flagDocumentID, flagOutput},
				Action: func(cCtx *cli.Context) error {
					return NewClientConfig(cCtx).Download(cCtx.String(flagDocumentID.Name), cCtx.String(flagOutput.Name))
				},
			},
			{
				Name:        "info",
				Usage:       "Print the recovery metadata for a document",
				Description: "Prints the nonce, key backup, and compliance snapshot needed for decryption.",
				Flags:       []cli.Flag{flagDocumentID},
				Action: func(cCtx *cli.Context) error {
					return NewClientConfig(cCtx).Info(cCtx.String(flagDocumentID.Name))
				},
			},
			{
				Name:        "recover",
				Usage:       "Recover the plaintext of a stored document",
				Description: "Runs the full recovery flow: fetch metadata, download ciphertext, decrypt through the service.",
				Flags:       []cli.Flag{flagDocumentID, flagOutput},
				Action: func(cCtx *cli.Context) error {
					return NewClientConfig(cCtx).Recover(cCtx.String(flagDocumentID.Name), cCtx.String(flagOutput.Name))
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// Client drives the document lifecycle against one service instance.
type Client struct {
	Provider interface {
		api.EncryptionProvider
		Recover(documentID string) ([]byte, error)
	}
}

func NewClientConfig(cCtx *cli.Context) *Client {
	return &Client{
		Provider: clients.NewDocumentClient(cCtx.String(flagServerAddr.Name)),
	}
}

func (c *Client) Encrypt(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read document: %w", err)
	}

	parsedResponse, err := c.Provider.Encrypt(filepath.Base(path), content)
	if err != nil {
		return fmt.Errorf("encryption request failed: %w", err)
	}
	encodedResp, _ := json.Marshal(parsedResponse)
	fmt.Println(string(encodedResp))
	return nil
}

func (c *Client) Download(documentID, outPath string) error {
	blob, err := c.Provider.Download(documentID)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	return writeOutput(outPath, blob)
}

func (c *Client) Info(documentID string) error {
	parsedResponse, err := c.Provider.Info(documentID)
	if err != nil {
		return fmt.Errorf("info request failed: %w", err)
	}
	encodedResp, _ := json.Marshal(parsedResponse)
	fmt.Println(string(encodedResp))
	return nil
}

func (c *Client) Recover(documentID, outPath string) error {
	plaintext, err := c.Provider.Recover(documentID)
	if err != nil {
		return fmt.Errorf("recovery failed: %w", err)
	}
	return writeOutput(outPath, plaintext)
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("could not write output: %w", err)
	}
	return nil
}
