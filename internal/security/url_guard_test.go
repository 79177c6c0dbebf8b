package security

import (
	"testing"
	"time"
)

func TestValidateBaseURL(t *testing.T) {
	g := NewURLGuard()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{
			name:    "公開HTTPSのURLを許可する",
			url:     "https://fakestoreapi.com",
			wantErr: false,
		},
		{
			name:    "公開HTTPのURLを許可する",
			url:     "http://catalog.example.com",
			wantErr: false,
		},
		{
			name:    "空のURLを拒否する",
			url:     "",
			wantErr: true,
		},
		{
			name:    "ftpスキームを拒否する",
			url:     "ftp://example.com/catalog",
			wantErr: true,
		},
		{
			name:    "fileスキームを拒否する",
			url:     "file:///etc/passwd",
			wantErr: true,
		},
		{
			name:    "localhostを拒否する",
			url:     "http://localhost:8080",
			wantErr: true,
		},
		{
			name:    "ループバックIPを拒否する",
			url:     "http://127.0.0.1/products",
			wantErr: true,
		},
		{
			name:    "プライベートIP (10.x) を拒否する",
			url:     "http://10.0.0.5/products",
			wantErr: true,
		},
		{
			name:    "プライベートIP (192.168.x) を拒否する",
			url:     "https://192.168.1.1",
			wantErr: true,
		},
		{
			name:    "クラウドメタデータIPを拒否する",
			url:     "http://169.254.169.254/latest/meta-data",
			wantErr: true,
		},
		{
			name:    "IPv6ループバックを拒否する",
			url:     "http://[::1]/products",
			wantErr: true,
		},
		{
			name:    "ホスト無しのURLを拒否する",
			url:     "https:///products",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.ValidateBaseURL(tt.url)
			if tt.wantErr && err == nil {
				t.Errorf("ValidateBaseURL(%q) = nil, want error", tt.url)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateBaseURL(%q) = %v, want nil", tt.url, err)
			}
		})
	}
}

func TestNewSafeClient_ReturnsClient(t *testing.T) {
	g := NewURLGuard()

	client := g.NewSafeClient(5 * time.Second)
	if client == nil {
		t.Fatal("expected non-nil http.Client")
	}
}
