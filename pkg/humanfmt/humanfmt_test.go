package humanfmt

import (
	"testing"
	"time"
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		input   string
		want    uint64
		wantErr bool
	}{
		{"0", 0, false},
		{"1024", 1024, false},
		{"100B", 100, false},
		{"100 B", 100, false},
		{" 10 GiB ", 10 * 1024 * 1024 * 1024, false},
		{"1kB", 1000, false},
		{"1KB", 1000, false},
		{"1k", 1000, false},
		{"1KiB", 1024, false},
		{"1Ki", 1024, false},
		{"1.5KiB", 1536, false},
		{"1MB", 1000 * 1000, false},
		{"1MiB", 1024 * 1024, false},
		{"1GB", 1000 * 1000 * 1000, false},
		{"1GiB", 1024 * 1024 * 1024, false},
		{"0.5GiB", 512 * 1024 * 1024, false},
		{"100GiB", 100 * 1024 * 1024 * 1024, false},
		{"1TB", 1000 * 1000 * 1000 * 1000, false},
		{"1TiB", 1 << 40, false},
		{"1PiB", 1 << 50, false},
		{"1EiB", 1 << 60, false},
		{"15EiB", 15 << 60, false},
		// Bits divide by eight, truncating toward zero.
		{"10kb", 1250, false},
		{"1Kib", 128, false},
		{"1Mib", 131072, false},
		{"10b", 1, false},
		{"", 0, true},
		{"   ", 0, true},
		{"XYZ", 0, true},
		{"GiB", 0, true},
		{"100XB", 0, true},
		{"10BB", 0, true},
		{"10.5.3GiB", 0, true},
		{"10G iB", 0, true},
		{"1ZB", 0, true},
		{"16EiB", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseBytes(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseBytes(%q) should error, got %d", tt.input, got)
			}
		} else {
			if err != nil {
				t.Errorf("ParseBytes(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseBytes(%q) = %d, want %d", tt.input, got, tt.want)
			}
		}
	}
}

func TestBytes(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{100, "100 B"},
		{1023, "1023 B"},
		{1024, "1.00 KiB"},
		{1536, "1.50 KiB"},
		{1048576, "1.00 MiB"},
		{1572864, "1.50 MiB"},
		{1073741824, "1.00 GiB"},
		{1610612736, "1.50 GiB"},
		{1099511627776, "1.00 TiB"},
		{1649267441664, "1.50 TiB"},
		{1125899906842624, "1.00 PiB"},
		{1688849860263936, "1.50 PiB"},
		{-100, "-100 B"},
	}

	for _, tt := range tests {
		got := Bytes(tt.input)
		if got != tt.want {
			t.Errorf("Bytes(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		input time.Duration
		want  string
	}{
		{0, "0ns"},
		{500 * time.Nanosecond, "500ns"},
		{1 * time.Microsecond, "1.0µs"},
		{500 * time.Microsecond, "500.0µs"},
		{1 * time.Millisecond, "1.0ms"},
		{1500 * time.Millisecond, "1.50s"},
		{1 * time.Second, "1.00s"},
		{1230 * time.Millisecond, "1.23s"},
		{59 * time.Second, "59.00s"},
		{60 * time.Second, "1m"},
		{90 * time.Second, "1m30s"},
		{3600 * time.Second, "1h"},
		{3660 * time.Second, "1h1m"},
		{7200 * time.Second, "2h"},
		{8100 * time.Second, "2h15m"},
	}

	for _, tt := range tests {
		got := Duration(tt.input)
		if got != tt.want {
			t.Errorf("Duration(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestThroughput(t *testing.T) {
	tests := []struct {
		bytes    int64
		duration time.Duration
		want     string
	}{
		{0, time.Second, "0 B/s"},
		{1000, time.Second, "1000 B/s"},
		{1024, time.Second, "1.00 KiB/s"},
		{1048576, time.Second, "1.00 MiB/s"},
		{104857600, time.Second, "100.00 MiB/s"},
		{1073741824, time.Second, "1.00 GiB/s"},
		{1099511627776, time.Second, "1.00 TiB/s"},
		{1048576, 2 * time.Second, "512.00 KiB/s"},
		{0, 0, "∞"},
	}

	for _, tt := range tests {
		got := Throughput(tt.bytes, tt.duration)
		if got != tt.want {
			t.Errorf("Throughput(%d, %v) = %q, want %q", tt.bytes, tt.duration, got, tt.want)
		}
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.00K"},
		{1500, "1.50K"},
		{1000000, "1.00M"},
		{1500000, "1.50M"},
		{1000000000, "1.00B"},
		{1500000000, "1.50B"},
		{-100, "-100"},
	}

	for _, tt := range tests {
		got := Count(tt.input)
		if got != tt.want {
			t.Errorf("Count(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func BenchmarkParseBytes(b *testing.B) {
	inputs := []string{"100GiB", "1.5TiB", "10kb", "1024"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ParseBytes(inputs[i%len(inputs)])
	}
}

func BenchmarkBytes(b *testing.B) {
	sizes := []int64{100, 1024, 1048576, 1073741824}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Bytes(sizes[i%len(sizes)])
	}
}
