// Package codegen, davet kodlarını üretir.
//
// Kod 20 karakterlik küçük harf hex string'dir: sha1 digest'inin ilk
// 20 karakteri. Girdi karışımı CSPRNG entropisi + nanosaniye zaman
// damgası + davet bağlamından oluşur, böylece aynı anda oluşturulan
// davetler bile farklı kod alır.
package codegen

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	mathrand "math/rand"
	"time"
)

// CodeLength, üretilen kodların karakter uzunluğu.
const CodeLength = 20

// Generator, davet kodu üretici.
// now alanı testlerde sabitlenebilir.
type Generator struct {
	now func() time.Time
}

// New, sistem saatini kullanan bir Generator döner.
func New() *Generator {
	return &Generator{now: time.Now}
}

// NewWithClock, testler için saat enjeksiyonlu Generator döner.
func NewWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Generate, yeni bir davet kodu üretir.
//
// degraded true dönerse CSPRNG okunamadı ve math/rand'e düşüldü —
// kod yine üretilir ama çağıran bunu loglamalı. Zaman damgası ve
// bağlam karışımda olduğu için zayıf entropi tek başına çakışma
// üretmez, sadece tahmin edilebilirliği artırır.
func (g *Generator) Generate(guestName, hostID string) (code string, degraded bool, err error) {
	entropy := make([]byte, 16)
	if _, rerr := rand.Read(entropy); rerr != nil {
		degraded = true
		binary.LittleEndian.PutUint64(entropy, mathrand.Uint64())
		binary.LittleEndian.PutUint64(entropy[8:], mathrand.Uint64())
	}

	h := sha1.New()
	h.Write(entropy)
	fmt.Fprintf(h, "%d|%s|%s", g.now().UnixNano(), guestName, hostID)

	digest := hex.EncodeToString(h.Sum(nil))
	return digest[:CodeLength], degraded, nil
}
