package api

import (
	"errors"
	"fmt"
	"io"

	"github.com/dutchcoders/go-clamd"
)

// ErrInfected is returned when the scanner flags an upload.
var ErrInfected = errors.New("malicious file detected")

// VirusScanner 在解析上传文件之前扫描其内容。
type VirusScanner interface {
	Scan(r io.Reader) error
}

type clamdScanner struct {
	client *clamd.Clamd
}

// NewClamdScanner returns a scanner backed by clamd at addr, or nil when
// addr is empty.
func NewClamdScanner(addr string) VirusScanner {
	if addr == "" {
		return nil
	}
	return &clamdScanner{client: clamd.NewClamd(addr)}
}

func (s *clamdScanner) Scan(r io.Reader) error {
	abortChan := make(chan bool)
	defer close(abortChan)

	scanChan, err := s.client.ScanStream(r, abortChan)
	if err != nil {
		return fmt.Errorf("scan stream: %w", err)
	}
	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			return fmt.Errorf("%w: %s", ErrInfected, result.Description)
		}
	}
	return nil
}
