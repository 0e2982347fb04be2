package logger

import "testing"

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{"user_id", 42, "hf_api_token", "abc", "dangling"})
	if len(out) != 5 {
		t.Fatalf("len: want=%d got=%d", 5, len(out))
	}
	if out[1] != 42 {
		t.Fatalf("user_id: want=%v got=%v", 42, out[1])
	}
	if out[3] != "[REDACTED]" {
		t.Fatalf("token: want=%q got=%v", "[REDACTED]", out[3])
	}
	if out[4] != "dangling" {
		t.Fatalf("dangling key: want=%q got=%v", "dangling", out[4])
	}
}

func TestNewDevelopment(t *testing.T) {
	log, err := New("development")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer log.Sync()
	log.With("component", "test").Info("hello", "api_key", "secret")
}
