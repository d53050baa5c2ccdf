package cache

// Simple JSON protocol for the cache daemon over a Unix domain socket.
// One request -> one response using json.Encoder/Decoder per connection.

type Request struct {
	Op         string `json:"op"` // "get" | "put" | "delete" | "clear"
	Key        string `json:"key,omitempty"`
	Value      []byte `json:"value,omitempty"`
	TTLSeconds int64  `json:"ttl_seconds,omitempty"`
	// Prefix is the key prefix swept by the "clear" op.
	Prefix string `json:"prefix,omitempty"`
}

type Response struct {
	OK    bool   `json:"ok"`
	Value []byte `json:"value,omitempty"`
	// Count is the number of entries removed by a "clear" op.
	Count int    `json:"count,omitempty"`
	Error string `json:"error,omitempty"`
}
