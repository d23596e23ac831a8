// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Go'da error'lar basit değerlerdir. errors.New() ile sabit error
// değişkenleri tanımlarız, karşılaştırma string yerine errors.Is ile yapılır:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
//
// Davet defterinin hata taksonomisi iki sınıfa ayrılır:
//   - Beklenen iş reddi (ErrAlreadyProcessed, ErrExpired, ErrInvalidState):
//     kullanıcıya gösterilir, error log'una YAZILMAZ.
//   - Altyapı hatası (ErrPersistence, ErrLockTimeout): error severity ile
//     loglanır, kullanıcıya genel bir mesaj döner.
package pkg

import "errors"

// Domain-level error'lar.
// Handler katmanı bu error'ları HTTP status code'larına map'ler.
// Service katmanı bunları döner, handler yakalar.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrInternal     = errors.New("internal error")

	// ErrAlreadyExists — unique constraint ihlali (ör: username alınmış).
	ErrAlreadyExists = errors.New("already exists")

	// ErrAlreadyProcessed — geçiş reddedildi çünkü kayıt zaten ilerlemiş
	// (ör: ikinci Approve denemesi aprobado bir kayda çarptı).
	ErrAlreadyProcessed = errors.New("already processed")

	// ErrExpired — geçiş reddedildi çünkü davetin süresi dolmuş.
	// Approve anında expiry sınırı geçilmişse süre kazanır: mikrosaniye
	// geç gelen onay bile reddedilir.
	ErrExpired = errors.New("invitation expired")

	// ErrInvalidState — mevcut durumda tanımlı olmayan geçiş
	// (ör: cancelado bir kaydı tekrar Cancel etmek).
	ErrInvalidState = errors.New("invalid state transition")

	// ErrPersistence — defter dosyası okunamadı/yazılamadı veya
	// serialize edilemedi. Önceki disk içeriği bozulmadan bırakılır.
	ErrPersistence = errors.New("persistence error")

	// ErrLockTimeout — defter kilidi süre sınırı içinde alınamadı.
	// Contention patolojik seviyedeyse belirsiz bekleme yerine bu döner.
	ErrLockTimeout = errors.New("lock acquisition timed out")

	// ErrCodeSpaceExhausted — kod üretici retry bütçesini tüketti.
	// 20 karakterlik digest kodlarla pratikte erişilmez ama handle edilir.
	ErrCodeSpaceExhausted = errors.New("code space exhausted")
)
