package solana

import (
	"encoding/json"
	"fmt"
)

// LogsSubscribeRequest builds a logsSubscribe frame for logs mentioning any of programs.
func LogsSubscribeRequest(id uint64, commitment string, programs ...string) map[string]any {
	filter := map[string]any{"mentions": programs}
	if len(programs) == 0 {
		filter = map[string]any{"all": nil}
	}
	if commitment == "" {
		commitment = DefaultCommitment
	}
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "logsSubscribe",
		"params":  []any{filter, map[string]string{"commitment": commitment}},
	}
}

// LogNotification is one logsNotification payload.
type LogNotification struct {
	SubscriptionID uint64
	Signature      string
	Slot           uint64
	Logs           []string
	Failed         bool
}

// WSMessageKind classifies an inbound subscription frame.
type WSMessageKind int

const (
	WSUnknown WSMessageKind = iota
	WSSubscribed
	WSLogs
	WSError
)

// WSMessage is a decoded subscription frame.
type WSMessage struct {
	Kind           WSMessageKind
	RequestID      uint64
	SubscriptionID uint64
	Logs           *LogNotification
	Err            *RPCError
}

type wsFrame struct {
	ID     *uint64         `json:"id"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
	Params *struct {
		Subscription uint64 `json:"subscription"`
		Result       struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
			Value struct {
				Signature string   `json:"signature"`
				Err       any      `json:"err"`
				Logs      []string `json:"logs"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

// ParseWSMessage decodes a subscription confirmation, notification or error frame.
func ParseWSMessage(data []byte) (WSMessage, error) {
	var frame wsFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return WSMessage{}, fmt.Errorf("decode ws frame: %w", err)
	}

	switch {
	case frame.Error != nil:
		msg := WSMessage{Kind: WSError, Err: frame.Error}
		if frame.ID != nil {
			msg.RequestID = *frame.ID
		}
		return msg, nil

	case frame.ID != nil && len(frame.Result) > 0:
		var subID uint64
		if err := json.Unmarshal(frame.Result, &subID); err != nil {
			return WSMessage{}, fmt.Errorf("decode subscription id: %w", err)
		}
		return WSMessage{Kind: WSSubscribed, RequestID: *frame.ID, SubscriptionID: subID}, nil

	case frame.Method == "logsNotification" && frame.Params != nil:
		p := frame.Params
		return WSMessage{
			Kind:           WSLogs,
			SubscriptionID: p.Subscription,
			Logs: &LogNotification{
				SubscriptionID: p.Subscription,
				Signature:      p.Result.Value.Signature,
				Slot:           p.Result.Context.Slot,
				Logs:           p.Result.Value.Logs,
				Failed:         p.Result.Value.Err != nil,
			},
		}, nil
	}

	return WSMessage{Kind: WSUnknown}, nil
}
