package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatMessage_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ChatMessage
	}{
		{
			name: "plain strings",
			in:   `{"id":1,"user":"alice","text":"hi","timestamp":"10:00 AM","clientId":"c1","status":"pending"}`,
			want: ChatMessage{ID: 1, User: "alice", Text: "hi", Timestamp: "10:00 AM", ClientID: "c1", Status: StatusPending},
		},
		{
			name: "numeric text",
			in:   `{"id":2,"user":"alice","text":42}`,
			want: ChatMessage{ID: 2, User: "alice", Text: "42"},
		},
		{
			name: "object user and bool text",
			in:   `{"id":3,"user":{ "name": "bob" },"text":true}`,
			want: ChatMessage{ID: 3, User: `{"name":"bob"}`, Text: "true"},
		},
		{
			name: "null fields",
			in:   `{"id":null,"user":null,"text":null}`,
			want: ChatMessage{},
		},
		{
			name: "string id",
			in:   `{"id":"1736000000000","user":"a","text":"b"}`,
			want: ChatMessage{ID: 1736000000000, User: "a", Text: "b"},
		},
		{
			name: "fractional id",
			in:   `{"id":12.7,"user":"a","text":"b"}`,
			want: ChatMessage{ID: 12, User: "a", Text: "b"},
		},
		{
			name: "unparseable id",
			in:   `{"id":"soon","user":"a","text":"b"}`,
			want: ChatMessage{User: "a", Text: "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ChatMessage
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChatMessage_UnmarshalJSON_NotAnObject(t *testing.T) {
	var got ChatMessage
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &got))
}

func TestChatMessage_StoredRoundTrip(t *testing.T) {
	in := []ChatMessage{{ID: 7, User: "bob", Text: "hey", ServerTimestamp: "2025-01-01T10:00:00.000Z", Status: StatusConfirmed}}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out []ChatMessage
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
