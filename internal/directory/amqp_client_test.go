package directory

import (
	"encoding/json"
	"testing"
)

// The reply decoding must distinguish "no record" (null result) from a
// legitimately zero id, and must surface remote exceptions.
func TestRPCReplyDecoding(t *testing.T) {
	var reply rpcReply
	if err := json.Unmarshal([]byte(`{"result": 42, "error": null}`), &reply); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if reply.Result == nil || *reply.Result != 42 {
		t.Errorf("expected result 42, got %v", reply.Result)
	}
	if reply.Error != nil {
		t.Errorf("unexpected error field: %+v", reply.Error)
	}

	reply = rpcReply{}
	if err := json.Unmarshal([]byte(`{"result": 0, "error": null}`), &reply); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if reply.Result == nil {
		t.Fatal("zero id must decode as present, not absent")
	}
	if *reply.Result != 0 {
		t.Errorf("expected result 0, got %d", *reply.Result)
	}

	reply = rpcReply{}
	if err := json.Unmarshal([]byte(`{"result": null, "error": null}`), &reply); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if reply.Result != nil {
		t.Errorf("null result must decode as absent, got %d", *reply.Result)
	}

	reply = rpcReply{}
	body := `{"result": null, "error": {"exc_type": "UserNotFound", "value": "no such user"}}`
	if err := json.Unmarshal([]byte(body), &reply); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if reply.Error == nil || reply.Error.ExcType != "UserNotFound" {
		t.Errorf("expected remote exception, got %+v", reply.Error)
	}
}

func TestRPCRequestShape(t *testing.T) {
	body, err := json.Marshal(rpcRequest{
		Args:   []any{"user-1", map[string]any{"city": "Paris"}},
		Kwargs: map[string]any{},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	args, ok := decoded["args"].([]any)
	if !ok || len(args) != 2 {
		t.Fatalf("expected two positional args, got %v", decoded["args"])
	}
	if args[0] != "user-1" {
		t.Errorf("first arg must be the user id, got %v", args[0])
	}
	if _, ok := decoded["kwargs"]; !ok {
		t.Error("kwargs must always be present")
	}
}
