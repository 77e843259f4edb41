package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/refgate/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-g string   gRPC bind address, empty disables gRPC
//	-d string   PostgreSQL DSN for the analysis ledger
//	-p string   storage provider (s3, azure)
//	-b string   storage bucket
//	-e string   S3 base endpoint (e.g. "http://127.0.0.1:9000/")
//	-r string   S3 region
//	-u string   S3 access key
//	-s string   S3 secret key
//	-k string   analysis backend base URL
//	-l string   log format (json, text, zerolog)
//
// Only these flags are taken from os.Args (see flagx.FilterArgs).
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-p", "-b", "-e", "-r", "-u", "-s", "-k", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run the HTTP API")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to run the gRPC health endpoint")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.StorageProvider, "p", config.StorageProvider, "storage provider")
	fs.StringVar(&config.Bucket, "b", config.Bucket, "storage bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "s", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.BackendURL, "k", config.BackendURL, "analysis backend base URL")
	fs.StringVar(&config.LogFormat, "l", config.LogFormat, "log format")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
