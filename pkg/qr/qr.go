// Package qr, davet kodları için QR görselleri üretir.
//
// Her davetin kodu tek başına QR payload'ıdır — URL değil, çıplak kod.
// Kapıdaki okuyucu kodu okur ve kendi API çağrısını yapar; payload'a
// host gömmek QR'ı deployment adresine bağımlı yapardı.
package qr

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"
)

// Encoder, QR görsel üretimi için interface.
// Testlerde fake ile değiştirilir — PNG üretmek test için gereksiz.
type Encoder interface {
	// Write, kod için PNG üretip diske yazar.
	Write(code string) error

	// Remove, kodun PNG'sini siler. Dosya yoksa hata dönmez.
	Remove(code string) error

	// Path, kodun PNG dosya yolunu döner. Dosyanın varlığını garanti etmez.
	Path(code string) string
}

type fileEncoder struct {
	dir  string
	size int
}

// NewFileEncoder, PNG'leri verilen dizine yazan bir Encoder döner.
func NewFileEncoder(dir string, size int) (Encoder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create qr dir: %w", err)
	}
	return &fileEncoder{dir: dir, size: size}, nil
}

func (e *fileEncoder) Write(code string) error {
	// High error correction: kapıda telefon ekranından okunacak,
	// parlama ve kısmi kapanmaya tolerans gerekli.
	if err := qrcode.WriteFile(code, qrcode.High, e.size, e.Path(code)); err != nil {
		return fmt.Errorf("write qr png: %w", err)
	}
	return nil
}

func (e *fileEncoder) Remove(code string) error {
	err := os.Remove(e.Path(code))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove qr png: %w", err)
	}
	return nil
}

func (e *fileEncoder) Path(code string) string {
	return filepath.Join(e.dir, url.QueryEscape(code)+".png")
}
