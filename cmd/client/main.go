// Package main is a command-line client for the authentication API.
//
//	client -cmd register -key-file id.json
//	client -cmd login    -key-file id.json [-payload text]
//	client -cmd session  -key-file id.json
//
// The key file is produced by tools/keygen -mode user -out id.json.
package main

import (
	"cmp"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/atinyakov/zkauth/internal/client"
)

var (
	version   string
	buildDate string
)

func main() {
	var (
		cmd     string
		baseURL string
		apiKey  string
		caFile  string
		keyFile string
		payload string
		roles   string
		showVer bool
	)

	flag.StringVar(&cmd, "cmd", "", "command: register | login | session")
	flag.StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	flag.StringVar(&apiKey, "api-key", os.Getenv("ZKAUTH_API_KEY"), "client API key")
	flag.StringVar(&caFile, "ca", "", "CA certificate for HTTPS servers")
	flag.StringVar(&keyFile, "key-file", "id.json", "user key file")
	flag.StringVar(&payload, "payload", "", "login payload (defaults to the username or email)")
	flag.StringVar(&roles, "roles", "", "comma separated roles for register")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("zkauth client\nVersion: %s\nBuild Date: %s\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		return
	}
	if apiKey == "" {
		var err error
		if apiKey, err = client.PromptSecret("API key: ", os.Stdin, os.Stderr); err != nil {
			log.Fatalf("please provide -api-key or ZKAUTH_API_KEY: %v", err)
		}
	}

	var hc *http.Client
	if caFile != "" {
		var err error
		if hc, err = client.NewHTTPClient(caFile); err != nil {
			log.Fatal(err)
		}
	}
	c := client.New(baseURL, apiKey, hc)

	kf, err := client.LoadKeyFile(keyFile)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {
	case "register":
		key, err := kf.Key()
		if err != nil {
			log.Fatal(err)
		}
		var rs []string
		if roles != "" {
			rs = strings.Split(roles, ",")
		}
		id, err := c.Register(ctx, kf.Identity(), key.Public(), rs)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Registered user %d\n", id)
	case "login":
		key, err := kf.Key()
		if err != nil {
			log.Fatal(err)
		}
		resp, err := c.Login(ctx, kf.Identity(), key, cmp.Or(payload, kf.Username, kf.Email))
		if err != nil {
			log.Fatal(err)
		}
		kf.Token = resp.Token
		if err := kf.Save(keyFile); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Logged in, session %s expires at %s\n", resp.SessionID, resp.ExpiresAt.Format(time.RFC3339))
	case "session":
		if kf.Token == "" {
			log.Fatal("no session token in key file, run login first")
		}
		s, err := c.Session(ctx, kf.Token)
		if err != nil {
			log.Fatal(err)
		}
		b, _ := json.MarshalIndent(s, "", "  ")
		fmt.Println(string(b))
	default:
		log.Fatalf("unknown command: %s", cmd)
	}
}
