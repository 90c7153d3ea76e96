// cmd/orandctl is the admin CLI for the §4.8 operator methods: user and
// receiver lifecycle management against a running orandd's JSON-RPC
// endpoint, authenticated as the admin keyring.
//
// Usage:
//
//	orandctl -endpoint http://localhost:8545 -token <jwt> add-user -username carol -hmac-secret deadbeef
//	orandctl -endpoint http://localhost:8545 -token <jwt> get-user -username carol
//	orandctl -endpoint http://localhost:8545 -token <jwt> add-receiver -username carol -name main -network 1 -address 0x...
//	orandctl -endpoint http://localhost:8545 -token <jwt> get-receiver -username carol -name main
//	orandctl -endpoint http://localhost:8545 -token <jwt> remove-receiver -username carol -name main
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	endpoint := flag.String("endpoint", "http://localhost:8545", "orandd JSON-RPC endpoint")
	token := flag.String("token", os.Getenv("ORANDCTL_TOKEN"), "bearer token for the admin keyring")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	subcommand := args[0]
	sub := flag.NewFlagSet(subcommand, flag.ExitOnError)
	username := sub.String("username", "", "keyring username")
	hmacSecret := sub.String("hmac-secret", "", "HMAC secret for a new user")
	name := sub.String("name", "", "receiver name")
	network := sub.Int64("network", 0, "network id")
	address := sub.String("address", "", "receiver address (0x + 40 hex chars)")
	if err := sub.Parse(args[1:]); err != nil {
		fatalf("parse flags: %v", err)
	}

	var method string
	var params map[string]interface{}
	switch subcommand {
	case "add-user":
		method = "admin_addUser"
		params = map[string]interface{}{"username": *username, "hmac_secret": *hmacSecret}
	case "get-user":
		method = "admin_getUser"
		params = map[string]interface{}{"username": *username}
	case "add-receiver":
		method = "admin_addReceiver"
		params = map[string]interface{}{"username": *username, "name": *name, "network": *network, "address": *address}
	case "get-receiver":
		method = "admin_getReceiver"
		params = map[string]interface{}{"username": *username, "name": *name}
	case "remove-receiver":
		method = "admin_removeReceiver"
		params = map[string]interface{}{"username": *username, "name": *name}
	default:
		usage()
		os.Exit(1)
	}

	result, err := call(*endpoint, *token, method, params)
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Println(result)
}

func call(endpoint, token, method string, params map[string]interface{}) (string, error) {
	body, err := json.Marshal(map[string]interface{}{"method": method, "params": params, "id": 1})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request failed (%d): %s", resp.StatusCode, string(respBody))
	}
	return string(respBody), nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: orandctl [-endpoint url] [-token jwt] <add-user|get-user|add-receiver|get-receiver|remove-receiver> [flags]")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
