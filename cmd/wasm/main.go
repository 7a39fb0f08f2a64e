//go:build js && wasm

package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/smallyu/go-ecdh/internal/crypto/curves"
	"github.com/smallyu/go-ecdh/internal/crypto/ec"
	"github.com/smallyu/go-ecdh/internal/protocol/ecdh"
	"github.com/smallyu/go-ecdh/internal/protocol/exchange"
	"github.com/smallyu/go-ecdh/pkg/kex"
)

// Active state machines by handle ("<party>-<session>")
var sessions = make(map[string]kex.StateMachine)

func main() {
	c := make(chan struct{})

	fmt.Println("go-ecdh WASM initialized")

	js.Global().Set("GoECDH", map[string]interface{}{
		"NewExchange": js.FuncOf(NewExchange),
		"Update":      js.FuncOf(Update),
		"Result":      js.FuncOf(Result),
	})

	<-c
}

type paramsInput struct {
	PartyID    string   `json:"partyID"`
	AllParties []string `json:"allParties"`
	SessionID  string   `json:"sessionID"`
	Curve      string   `json:"curve"`
	Backend    string   `json:"backend"`
}

// NewExchange starts an exchange from a JSON parameter object and returns
// {"sessionID": handle, "messages": [...]}.
func NewExchange(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 {
		return "error: expected 1 argument (jsonParams)"
	}

	var input paramsInput
	if err := json.Unmarshal([]byte(args[0].String()), &input); err != nil {
		return fmt.Sprintf("error: invalid json: %v", err)
	}
	if input.Curve == "" {
		input.Curve = curves.Secp256k1
	}
	if input.Backend == "" {
		input.Backend = ec.BackendJacobian
	}

	c, err := curves.FromName(input.Curve)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	arith, err := ec.NewArithmetic(input.Backend, c)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}

	parties := make([]kex.PartyID, len(input.AllParties))
	var local kex.PartyID
	for i, id := range input.AllParties {
		parties[i] = exchange.NewParty(id)
		if id == input.PartyID {
			local = parties[i]
		}
	}
	if local == nil {
		return "error: local party ID not found in allParties"
	}

	params := &kex.Parameters{
		PartyID:   local,
		Parties:   parties,
		Scheme:    "ecdh/" + c.Name,
		SessionID: []byte(input.SessionID),
	}
	sm, out, err := exchange.NewStateMachine[ecdh.PrivateKey, ecdh.PublicKey](params, ecdh.NewScheme(arith), exchange.WithRand(rand.Reader))
	if err != nil {
		return fmt.Sprintf("error: failed to create state machine: %v", err)
	}

	handle := fmt.Sprintf("%s-%s", input.PartyID, input.SessionID)
	sessions[handle] = sm

	resp, err := json.Marshal(map[string]interface{}{
		"sessionID": handle,
		"messages":  out,
	})
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(resp)
}

// Update feeds one JSON message to a session and returns the JSON array of
// messages it produced.
func Update(this js.Value, args []js.Value) interface{} {
	if len(args) != 2 {
		return "error: expected 2 arguments (sessionID, jsonMsg)"
	}

	handle := args[0].String()
	sm, ok := sessions[handle]
	if !ok {
		return "error: session not found"
	}

	var msg exchange.Message
	if err := json.Unmarshal([]byte(args[1].String()), &msg); err != nil {
		return fmt.Sprintf("error: %v", err)
	}

	next, out, err := sm.Update(&msg)
	if err != nil {
		return fmt.Sprintf("error: update failed: %v", err)
	}
	sessions[handle] = next

	if out == nil {
		out = []kex.Message{}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

// Result returns the confirmed session as JSON, or null while the exchange
// is still running. The session key is hex encoded; the raw secret stays
// in Go memory.
func Result(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 {
		return "error: expected 1 argument (sessionID)"
	}
	sm, ok := sessions[args[0].String()]
	if !ok {
		return "error: session not found"
	}

	s, _ := sm.Result().(*exchange.Session)
	if s == nil {
		return nil
	}

	b, err := json.Marshal(map[string]string{
		"sessionID": string(s.SessionID),
		"scheme":    s.Scheme,
		"peer":      s.Peer.ID(),
		"key":       hex.EncodeToString(s.Key),
	})
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}
