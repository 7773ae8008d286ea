// Package main provides a TCP administration server for gitkit repositories.
package main

import (
	"encoding/json"
)

// Request is one client command, newline-delimited JSON.
type Request struct {
	Op string `json:"op"`

	// AUTH
	Token string `json:"token,omitempty"`

	// Remote operations
	Name          string   `json:"name,omitempty"`
	URL           string   `json:"url,omitempty"`
	FetchRefSpecs []string `json:"fetch,omitempty"`

	// MERGE
	Source   string `json:"source,omitempty"`
	Favor    string `json:"favor,omitempty"`
	FF       string `json:"ff,omitempty"`
	NoCommit bool   `json:"no_commit,omitempty"`
}

// Response is the server's reply to one request.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Type    string          `json:"type,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// RemoteResponse describes one configured remote.
type RemoteResponse struct {
	Name          string   `json:"name"`
	URL           string   `json:"url"`
	URLs          []string `json:"urls,omitempty"`
	FetchRefSpecs []string `json:"fetch,omitempty"`
}

// ListResponse carries the full remote enumeration.
type ListResponse struct {
	Remotes []RemoteResponse `json:"remotes"`
}

// MergeResponse describes a completed merge.
type MergeResponse struct {
	CommitID        string `json:"commit_id,omitempty"`
	FastForward     bool   `json:"fast_forward"`
	AlreadyUpToDate bool   `json:"already_up_to_date"`
	MergedFiles     int    `json:"merged_files"`
	Conflicts       int    `json:"conflicts"`
}

// AuthResponse reports the outcome of an AUTH request.
type AuthResponse struct {
	Authenticated bool   `json:"authenticated"`
	Identity      string `json:"identity,omitempty"`
	ExpiresIn     int    `json:"expires_in,omitempty"`
}

// EncodeResponse serializes a Response to JSON with a trailing newline.
func EncodeResponse(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeRequest parses a JSON request line.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	err := json.Unmarshal(data, &req)
	return req, err
}

func errorResponse(typ string, err error) Response {
	return Response{Success: false, Type: typ, Error: err.Error()}
}

func resultResponse(typ string, v any) Response {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResponse(typ, err)
	}
	return Response{Success: true, Type: typ, Result: data}
}
