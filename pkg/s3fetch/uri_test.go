package s3fetch

import "testing"

func TestIsS3URI(t *testing.T) {
	tests := []struct {
		arg  string
		want bool
	}{
		{"s3://bucket/key", true},
		{"s3://bucket", true},
		{"manifest.tsv", false},
		{"/abs/manifest.tsv", false},
		{"https://bucket/key", false},
		{"-", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsS3URI(tt.arg); got != tt.want {
			t.Errorf("IsS3URI(%q) = %v, want %v", tt.arg, got, tt.want)
		}
	}
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{
			uri:        "s3://my-bucket/path/to/manifest.tsv.gz",
			wantBucket: "my-bucket",
			wantKey:    "path/to/manifest.tsv.gz",
		},
		{
			uri:        "s3://bucket/key",
			wantBucket: "bucket",
			wantKey:    "key",
		},
		{
			uri:        "s3://bucket-only/",
			wantBucket: "bucket-only",
			wantKey:    "",
		},
		{
			uri:        "s3://bucket",
			wantBucket: "bucket",
			wantKey:    "",
		},
		{
			uri:     "https://bucket/key",
			wantErr: true,
		},
		{
			uri:     "/local/path",
			wantErr: true,
		},
		{
			uri:     "s3://",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, key, err := ParseS3URI(tt.uri)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if bucket != tt.wantBucket {
				t.Errorf("bucket = %q, want %q", bucket, tt.wantBucket)
			}
			if key != tt.wantKey {
				t.Errorf("key = %q, want %q", key, tt.wantKey)
			}
		})
	}
}
