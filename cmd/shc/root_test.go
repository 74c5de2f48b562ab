/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/trustbloc/shc-go/crypto-ext/pubkey"
	"github.com/trustbloc/shc-go/crypto-ext/testutil"
	"github.com/trustbloc/shc-go/keyset"
)

func init() {
	color.NoColor = true
}

const testDirectory = `{
  "participating_issuers": [
    {"iss": "https://issuer-a.example", "name": "Issuer A", "website": "https://a.example"},
    {"iss": "https://issuer-b.example", "canonical_iss": "https://issuer-b.example/canonical", "name": "Issuer B"}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))

	err := cmd.Execute()

	return out.String(), err
}

func TestReadInput(t *testing.T) {
	t.Run("raw value with whitespace", func(t *testing.T) {
		jws, err := readInput("  aaa.\nbbb .ccc\n", nil)
		require.NoError(t, err)
		require.Equal(t, "aaa.bbb.ccc", jws)
	})

	t.Run("file", func(t *testing.T) {
		path := writeFile(t, "card.jws", "aaa.bbb\n.ccc\n")

		jws, err := readInput(path, nil)
		require.NoError(t, err)
		require.Equal(t, "aaa.bbb.ccc", jws)
	})

	t.Run("stdin", func(t *testing.T) {
		jws, err := readInput("-", strings.NewReader("aaa.bbb.ccc\n"))
		require.NoError(t, err)
		require.Equal(t, "aaa.bbb.ccc", jws)

		jws, err = readInput("", strings.NewReader("x.y.z"))
		require.NoError(t, err)
		require.Equal(t, "x.y.z", jws)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := readInput("", strings.NewReader(" \n"))
		require.ErrorContains(t, err, "no input provided")
	})
}

func TestVerifyCommand(t *testing.T) {
	signer, key, err := testutil.CreateES256("k1")
	require.NoError(t, err)

	jwks, err := json.Marshal(&keyset.KeySet{Keys: []pubkey.PublicKey{*key}})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(jwks)
	}))
	defer srv.Close()

	payload, err := json.Marshal(testutil.ImmunizationCard(srv.URL))
	require.NoError(t, err)

	compact, err := testutil.CompactJWS(signer, map[string]interface{}{"kid": "k1"}, payload, true)
	require.NoError(t, err)

	cfg := writeFile(t, "config.yaml", "trust:\n  skip_bundled: true\n")

	t.Run("valid card as JSON", func(t *testing.T) {
		out, runErr := run(t, "verify", "--config", cfg, "--json", compact)
		require.NoError(t, runErr)

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Equal(t, "verified", got["state"])
		require.Equal(t, "valid", got["verdict"])
		require.Equal(t, srv.URL, got["issuer"])
		require.Equal(t, false, got["issuerTrusted"])
	})

	t.Run("valid card from file as text", func(t *testing.T) {
		path := writeFile(t, "card.jws", compact+"\n")

		out, runErr := run(t, "verify", "--config", cfg, "--no-color", path)
		require.NoError(t, runErr)
		require.Contains(t, out, "SMART Health Card")
		require.Contains(t, out, "valid")
	})

	t.Run("claimed issuer mismatch", func(t *testing.T) {
		_, runErr := run(t, "verify", "--config", cfg, "--issuer", "https://other.example", compact)
		require.ErrorContains(t, runErr, "card not verified")
	})

	t.Run("undecodable input", func(t *testing.T) {
		_, runErr := run(t, "verify", "--config", cfg, "not-a-jws")
		require.ErrorContains(t, runErr, "card not verified: decode-failed")
	})

	t.Run("invalid config", func(t *testing.T) {
		bad := writeFile(t, "bad.yaml", "cache: [")

		_, runErr := run(t, "verify", "--config", bad, compact)
		require.ErrorContains(t, runErr, "failed to parse config file")
	})
}

func TestLookupCommand(t *testing.T) {
	t.Run("bundled code", func(t *testing.T) {
		out, err := run(t, "lookup", "http://loinc.org", "85354-9")
		require.NoError(t, err)
		require.Contains(t, out, "http://loinc.org|85354-9: Blood Pressure")
	})

	t.Run("miss as JSON", func(t *testing.T) {
		out, err := run(t, "lookup", "--json", "http://loinc.org", "0000-0")
		require.NoError(t, err)

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Equal(t, false, got["found"])
	})

	t.Run("argument count", func(t *testing.T) {
		_, err := run(t, "lookup", "http://loinc.org")
		require.Error(t, err)
	})
}

func TestIssuersCommand(t *testing.T) {
	dir := writeFile(t, "issuers.json", testDirectory)
	cfg := writeFile(t, "config.yaml", "trust:\n  skip_bundled: true\n  directory_file: "+dir+"\n")

	t.Run("list", func(t *testing.T) {
		out, err := run(t, "issuers", "--config", cfg, "--json")
		require.NoError(t, err)

		var got []map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Len(t, got, 2)
		require.Equal(t, "https://issuer-a.example", got[0]["iss"])
	})

	t.Run("single by canonical alias", func(t *testing.T) {
		out, err := run(t, "issuers", "--config", cfg, "https://issuer-b.example/canonical")
		require.NoError(t, err)
		require.Contains(t, out, "Issuer B")
		require.NotContains(t, out, "Issuer A")
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := run(t, "issuers", "--config", cfg, "https://unknown.example")
		require.ErrorContains(t, err, "issuer not trusted")
	})

	t.Run("unreadable directory", func(t *testing.T) {
		bad := writeFile(t, "config.yaml", "trust:\n  directory_file: /nonexistent/issuers.json\n")

		_, err := run(t, "issuers", "--config", bad)
		require.Error(t, err)
	})
}
