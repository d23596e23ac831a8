// Package ws, WebSocket bağlantı yönetimi ve gerçek zamanlı event dağıtımını sağlar.
//
// Mimari:
// - Hub: Tüm bağlantıları yöneten merkezi yapı (Observer pattern)
// - Client: Her WebSocket bağlantısını temsil eder
// - Event: Client-server arası iletilen mesaj formatı
//
// Kapıdaki güvenlik terminali bağlı kalır ve davet olaylarını anlık alır:
// yeni davet oluşturulduğunda liste kendiliğinden güncellenir, QR
// okutulup onaylandığında diğer terminaller de görür.
package ws

// Event, WebSocket üzerinden iletilen bir mesajı temsil eder.
//
// Op (operation): Event türü — "invitation_created", "heartbeat" vb.
// Data: Event'e özgü payload — davet kaydı vb.
// Seq (sequence number): Her outbound event'e verilen artan sayı.
//   Frontend eksik event tespit etmek için seq'i takip eder.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client → Server operasyonları
const (
	OpHeartbeat = "heartbeat" // Client her 30sn'de gönderir — "hâlâ bağlıyım" sinyali
)

// Server → Client operasyonları
const (
	OpReady        = "ready"         // Bağlantı kurulduğunda ilk gönderilen
	OpHeartbeatAck = "heartbeat_ack" // Heartbeat'e yanıt — "seni duydum"

	OpInvitationCreated     = "invitation_created"
	OpInvitationApproved    = "invitation_approved"
	OpInvitationCancelled   = "invitation_cancelled"
	OpInvitationReactivated = "invitation_reactivated"
	OpInvitationDeleted     = "invitation_deleted"
)

// ReadyData, bağlantı kurulduğunda client'a gönderilen ilk event'in payload'ı.
type ReadyData struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
