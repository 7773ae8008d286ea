package main

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/someoneigna/gitkit"
	"github.com/someoneigna/gitkit/engine"
)

func setupTestServer(t *testing.T, authConfig *AuthConfig) (*Server, func()) {
	eng, err := engine.NewMemoryEngine()
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	identity := engine.Identity{Name: "test", Email: "test@test.com"}

	server := NewServer(gitkit.Open(eng), identity, authConfig, nil)
	if err := server.Start(":0"); err != nil { // :0 picks a free port
		t.Fatalf("Failed to start server: %v", err)
	}

	return server, func() {
		server.Stop()
	}
}

type testClient struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func dialTestServer(t *testing.T, addr string) *testClient {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

func (c *testClient) send(req Request) Response {
	data, err := json.Marshal(req)
	if err != nil {
		c.t.Fatalf("Failed to marshal request: %v", err)
	}
	if _, err := c.conn.Write(append(data, '\n')); err != nil {
		c.t.Fatalf("Failed to send request: %v", err)
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		c.t.Fatalf("Failed to read response: %v", err)
	}

	var resp Response
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		c.t.Fatalf("Failed to parse response: %v", err)
	}
	return resp
}

func sendRequest(t *testing.T, addr string, req Request) Response {
	return dialTestServer(t, addr).send(req)
}

func TestServerStartStop(t *testing.T) {
	server, cleanup := setupTestServer(t, nil)
	defer cleanup()

	if server.Addr() == "" {
		t.Error("Expected non-empty address")
	}
}

func TestServerAddAndListRemotes(t *testing.T) {
	server, cleanup := setupTestServer(t, nil)
	defer cleanup()

	resp := sendRequest(t, server.Addr(), Request{Op: "ADD", Name: "origin", URL: "https://example.com/repo.git"})
	if !resp.Success {
		t.Fatalf("Expected success, got error: %s", resp.Error)
	}
	if resp.Type != "add" {
		t.Errorf("Expected add type, got: %s", resp.Type)
	}

	var added RemoteResponse
	if err := json.Unmarshal(resp.Result, &added); err != nil {
		t.Fatalf("Failed to parse add result: %v", err)
	}
	if added.Name != "origin" || added.URL != "https://example.com/repo.git" {
		t.Errorf("Unexpected remote: %+v", added)
	}

	resp = sendRequest(t, server.Addr(), Request{Op: "LIST"})
	if !resp.Success {
		t.Fatalf("Failed to list: %s", resp.Error)
	}

	var list ListResponse
	if err := json.Unmarshal(resp.Result, &list); err != nil {
		t.Fatalf("Failed to parse list result: %v", err)
	}
	if len(list.Remotes) != 1 || list.Remotes[0].Name != "origin" {
		t.Errorf("Unexpected remote list: %+v", list.Remotes)
	}
}

func TestServerGetMissingRemote(t *testing.T) {
	server, cleanup := setupTestServer(t, nil)
	defer cleanup()

	resp := sendRequest(t, server.Addr(), Request{Op: "GET", Name: "missing"})
	if resp.Success {
		t.Error("Expected failure for missing remote")
	}
}

func TestServerUpdateRemote(t *testing.T) {
	server, cleanup := setupTestServer(t, nil)
	defer cleanup()

	client := dialTestServer(t, server.Addr())

	resp := client.send(Request{Op: "ADD", Name: "origin", URL: "https://old.example.com/repo.git"})
	if !resp.Success {
		t.Fatalf("Failed to add remote: %s", resp.Error)
	}

	resp = client.send(Request{Op: "UPDATE", Name: "origin", URL: "https://new.example.com/repo.git"})
	if !resp.Success {
		t.Fatalf("Failed to update remote: %s", resp.Error)
	}

	var updated RemoteResponse
	if err := json.Unmarshal(resp.Result, &updated); err != nil {
		t.Fatalf("Failed to parse update result: %v", err)
	}
	if updated.URL != "https://new.example.com/repo.git" {
		t.Errorf("Expected updated url, got: %s", updated.URL)
	}
}

func TestServerRemoveRemote(t *testing.T) {
	server, cleanup := setupTestServer(t, nil)
	defer cleanup()

	client := dialTestServer(t, server.Addr())

	if resp := client.send(Request{Op: "ADD", Name: "origin", URL: "https://example.com/repo.git"}); !resp.Success {
		t.Fatalf("Failed to add remote: %s", resp.Error)
	}
	if resp := client.send(Request{Op: "REMOVE", Name: "origin"}); !resp.Success {
		t.Fatalf("Failed to remove remote: %s", resp.Error)
	}
	if resp := client.send(Request{Op: "GET", Name: "origin"}); resp.Success {
		t.Error("Expected remote to be gone after remove")
	}
}

func TestServerCheckName(t *testing.T) {
	server, cleanup := setupTestServer(t, nil)
	defer cleanup()

	type checkResponse struct {
		Name  string `json:"name"`
		Valid bool   `json:"valid"`
	}

	cases := map[string]bool{
		"origin": true,
		"a/b":    false,
		"":       false,
	}
	for name, want := range cases {
		resp := sendRequest(t, server.Addr(), Request{Op: "CHECK-NAME", Name: name})
		if !resp.Success {
			t.Fatalf("check-name %q failed: %s", name, resp.Error)
		}
		var cr checkResponse
		if err := json.Unmarshal(resp.Result, &cr); err != nil {
			t.Fatalf("Failed to parse check-name result: %v", err)
		}
		if cr.Valid != want {
			t.Errorf("check-name %q: expected valid=%v, got %v", name, want, cr.Valid)
		}
	}
}

func TestServerUnknownOp(t *testing.T) {
	server, cleanup := setupTestServer(t, nil)
	defer cleanup()

	resp := sendRequest(t, server.Addr(), Request{Op: "FROB"})
	if resp.Success {
		t.Error("Expected failure for unknown op")
	}
}

func TestServerMalformedRequest(t *testing.T) {
	server, cleanup := setupTestServer(t, nil)
	defer cleanup()

	conn, err := net.DialTimeout("tcp", server.Addr(), 2*time.Second)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("{not json\n")); err != nil {
		t.Fatalf("Failed to send: %v", err)
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	var resp Response
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Success {
		t.Error("Expected failure for malformed request")
	}
}

func makeTestToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}

func TestServerAuthRequired(t *testing.T) {
	server, cleanup := setupTestServer(t, &AuthConfig{Enabled: true, JWTSecret: "sekret"})
	defer cleanup()

	resp := sendRequest(t, server.Addr(), Request{Op: "ADD", Name: "origin", URL: "https://example.com/repo.git"})
	if resp.Success {
		t.Error("Expected unauthenticated mutation to fail")
	}

	// Reads stay open.
	resp = sendRequest(t, server.Addr(), Request{Op: "LIST"})
	if !resp.Success {
		t.Errorf("Expected unauthenticated list to succeed, got: %s", resp.Error)
	}
}

func TestServerAuthJWT(t *testing.T) {
	server, cleanup := setupTestServer(t, &AuthConfig{Enabled: true, JWTSecret: "sekret"})
	defer cleanup()

	client := dialTestServer(t, server.Addr())

	token := makeTestToken(t, "sekret", jwt.MapClaims{
		"name":  "Alice",
		"email": "alice@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	resp := client.send(Request{Op: "AUTH", Token: token})
	if !resp.Success {
		t.Fatalf("Expected auth to succeed: %s", resp.Error)
	}

	var ar AuthResponse
	if err := json.Unmarshal(resp.Result, &ar); err != nil {
		t.Fatalf("Failed to parse auth result: %v", err)
	}
	if !ar.Authenticated || ar.Identity != "Alice <alice@example.com>" {
		t.Errorf("Unexpected auth result: %+v", ar)
	}

	resp = client.send(Request{Op: "ADD", Name: "origin", URL: "https://example.com/repo.git"})
	if !resp.Success {
		t.Errorf("Expected authenticated mutation to succeed, got: %s", resp.Error)
	}
}

func TestServerAuthBadSecret(t *testing.T) {
	server, cleanup := setupTestServer(t, &AuthConfig{Enabled: true, JWTSecret: "sekret"})
	defer cleanup()

	token := makeTestToken(t, "wrong-secret", jwt.MapClaims{
		"name": "Mallory",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	resp := sendRequest(t, server.Addr(), Request{Op: "AUTH", Token: token})
	if resp.Success {
		t.Error("Expected auth with wrong secret to fail")
	}
}

func TestServerAuthIssuerMismatch(t *testing.T) {
	server, cleanup := setupTestServer(t, &AuthConfig{Enabled: true, JWTSecret: "sekret", Issuer: "gitkit"})
	defer cleanup()

	token := makeTestToken(t, "sekret", jwt.MapClaims{
		"name": "Alice",
		"iss":  "someone-else",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	resp := sendRequest(t, server.Addr(), Request{Op: "AUTH", Token: token})
	if resp.Success {
		t.Error("Expected auth with wrong issuer to fail")
	}
}
