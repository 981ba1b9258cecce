package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/genricoloni/playbadge/internal/domain"
	"github.com/genricoloni/playbadge/internal/domain/mocks"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestProcessor_Fetch(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		setupMock func(m *mocks.MockFetcher)
		wantErr   bool
		wantLen   int
	}{
		{
			name: "Success",
			url:  "http://example.com/a.png",
			setupMock: func(m *mocks.MockFetcher) {
				m.EXPECT().Fetch(gomock.Any(), "http://example.com/a.png").Return([]byte("img"), nil)
			},
			wantLen: 3,
		},
		{
			name: "Error - Fetcher Fails",
			url:  "http://example.com/a.png",
			setupMock: func(m *mocks.MockFetcher) {
				m.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, errors.New("network error"))
			},
			wantErr: true,
		},
		{
			name: "Error - Empty Body",
			url:  "http://example.com/a.png",
			setupMock: func(m *mocks.MockFetcher) {
				m.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return([]byte{}, nil)
			},
			wantErr: true,
		},
		{
			name:      "Error - No URL",
			url:       "",
			setupMock: func(m *mocks.MockFetcher) {},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			fetcher := mocks.NewMockFetcher(ctrl)
			tt.setupMock(fetcher)

			p := NewProcessor(zap.NewNop(), fetcher, time.Second)
			data, err := p.Fetch(context.Background(), tt.url)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrThumbnailUnavailable) {
					t.Fatalf("expected ErrThumbnailUnavailable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(data) != tt.wantLen {
				t.Errorf("expected %d bytes, got %d", tt.wantLen, len(data))
			}
		})
	}
}

// TestProcessor_Fetch_Timeout checks that a fetcher ignoring its context
// cannot hold the caller past the timeout.
func TestProcessor_Fetch_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	release := make(chan struct{})
	defer close(release)
	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, url string) ([]byte, error) {
			<-release
			return nil, errors.New("too late")
		}).AnyTimes()

	p := NewProcessor(zap.NewNop(), fetcher, 50*time.Millisecond)
	start := time.Now()
	_, err := p.Fetch(context.Background(), "http://10.255.255.1/slow.png")
	elapsed := time.Since(start)

	if !errors.Is(err, domain.ErrThumbnailUnavailable) {
		t.Fatalf("expected ErrThumbnailUnavailable, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected the deadline as cause, got %v", err)
	}
	if elapsed > time.Second {
		t.Errorf("fetch took %v, timeout was 50ms", elapsed)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		wantErr    bool
		opaqueAt   image.Point
		clearAt    image.Point
		checkClear bool
	}{
		{
			name:       "Small Image Is Centered Without Upscaling",
			data:       encodePNG(solid(40, 40, color.NRGBA{R: 200, A: 255})),
			opaqueAt:   image.Pt(60, 60),
			clearAt:    image.Pt(10, 10),
			checkClear: true,
		},
		{
			name:     "Large Square Image Fills Canvas",
			data:     encodePNG(solid(300, 300, color.NRGBA{B: 200, A: 255})),
			opaqueAt: image.Pt(2, 2),
		},
		{
			name:       "Wide Image Is Letterboxed",
			data:       encodeJPEG(solid(240, 120, color.NRGBA{G: 200, A: 255})),
			opaqueAt:   image.Pt(60, 60),
			clearAt:    image.Pt(60, 5),
			checkClear: true,
		},
		{
			name:    "Error - Not An Image",
			data:    []byte("not-an-image"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(tt.data, 120)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrThumbnailUnavailable) {
					t.Fatalf("expected ErrThumbnailUnavailable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 120 {
				t.Fatalf("expected 120x120, got %dx%d", b.Dx(), b.Dy())
			}
			if a := img.NRGBAAt(tt.opaqueAt.X, tt.opaqueAt.Y).A; a != 255 {
				t.Errorf("expected opaque pixel at %v, alpha %d", tt.opaqueAt, a)
			}
			if tt.checkClear {
				if a := img.NRGBAAt(tt.clearAt.X, tt.clearAt.Y).A; a != 0 {
					t.Errorf("expected transparent padding at %v, alpha %d", tt.clearAt, a)
				}
			}
		})
	}
}

func TestSuppressBackground(t *testing.T) {
	white := color.NRGBA{R: 250, G: 250, B: 250, A: 255}
	img := solid(120, 120, white)
	img.SetNRGBA(5, 5, color.NRGBA{R: 10, G: 10, B: 10, A: 255})

	out := SuppressBackground(img)

	if a := out.NRGBAAt(0, 0).A; a != 0 {
		t.Errorf("white corner should be transparent, alpha %d", a)
	}
	if a := out.NRGBAAt(60, 60).A; a != 255 {
		t.Errorf("center must be preserved, alpha %d", a)
	}
	if a := out.NRGBAAt(5, 5).A; a != 255 {
		t.Errorf("dark pixel outside the disk must pass through, alpha %d", a)
	}
	if a := img.NRGBAAt(0, 0).A; a != 255 {
		t.Error("input image was modified")
	}
}

func TestDataURI(t *testing.T) {
	uri, err := DataURI(solid(8, 8, color.NRGBA{B: 255, A: 255}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("unexpected prefix: %.40s", uri)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(raw)); err != nil {
		t.Errorf("payload is not a PNG: %v", err)
	}
}

func TestBackdrop(t *testing.T) {
	b := NewBackdrop(solid(120, 120, color.NRGBA{R: 255, A: 255}), 300, 20)
	if b == nil {
		t.Fatal("expected backdrop")
	}
	if got := b.img.Bounds(); got.Dx() != 300 || got.Dy() != 20 {
		t.Fatalf("expected 300x20 strip, got %v", got)
	}

	s := b.Slice(30, 2, 12)
	if got := s.Bounds(); got.Dx() != 2 || got.Dy() != 12 {
		t.Fatalf("expected 2x12 slice, got %v", got)
	}
	if a := s.NRGBAAt(0, 0).A; a != backdropAlpha {
		t.Errorf("expected alpha %d, got %d", backdropAlpha, a)
	}

	if NewBackdrop(nil, 10, 10) != nil {
		t.Error("nil image should give no backdrop")
	}
	var missing *image.NRGBA
	if NewBackdrop(missing, 300, 20) != nil {
		t.Error("missing artwork should give no backdrop")
	}
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(img image.Image) []byte {
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		panic("failed to create test PNG: " + err.Error())
	}
	return buf.Bytes()
}

func encodeJPEG(img image.Image) []byte {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 90}); err != nil {
		panic("failed to create test JPEG: " + err.Error())
	}
	return buf.Bytes()
}
