package watermark

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/skillpod-hq/sentinel/database/models"
	"github.com/skillpod-hq/sentinel/utils/securestore"
)

// 嵌入数据包头：magic + 方法字节 + 密文长度（大端 uint16）
var packetMagic = []byte("SPW1")

const (
	methodByteLSB    = 0x01
	packetHeaderSize = 4 + 1 + 2
	maxCiphertext    = 0xFFFF
)

// Payload 隐形水印身份载荷。CBOR 规范化编码保证同一载荷字节级一致。
type Payload struct {
	UserID    string `cbor:"u,omitempty" json:"user_id,omitempty"`
	SessionID string `cbor:"s,omitempty" json:"session_id,omitempty"`
	TenantID  string `cbor:"t,omitempty" json:"tenant_id,omitempty"`
	PodID     string `cbor:"p,omitempty" json:"pod_id,omitempty"`
	Timestamp int64  `cbor:"ts,omitempty" json:"timestamp,omitempty"`
	Sequence  uint64 `cbor:"q" json:"sequence"`
}

// EmbedResult 单帧嵌入结果
type EmbedResult struct {
	Frame       []byte             `json:"-"`
	PayloadKey  string             `json:"payload_key"`
	PayloadHash string             `json:"payload_hash"`
	Method      models.EmbedMethod `json:"method"`
	BytesUsed   int                `json:"bytes_used"`
}

var canonicalEnc cbor.EncMode

func init() {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	canonicalEnc = mode
}

// buildPayload 按配置筛选要编码的身份字段；时间与序号恒定携带
func buildPayload(id Identity, seq uint64, cfg *models.WatermarkConfiguration) Payload {
	p := Payload{
		Timestamp: id.Timestamp.UnixMilli(),
		Sequence:  seq,
	}
	fields := cfg.EncodeFields
	if len(fields) == 0 {
		fields = models.StringArray{string(models.FieldUserID), string(models.FieldSessionID)}
	}
	for _, f := range fields {
		switch models.WatermarkField(f) {
		case models.FieldUserID, models.FieldEmail:
			p.UserID = id.UserID
		case models.FieldSessionID:
			p.SessionID = id.SessionID
		}
	}
	// 租户与 Pod 是取证归属的最小集合，恒定编码
	p.TenantID = id.TenantID
	p.PodID = id.PodID
	return p
}

// PayloadHash 对规范化 CBOR 明文取哈希；任一字段变化哈希必变
func PayloadHash(p Payload) (string, error) {
	raw, err := canonicalEnc.Marshal(p)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// strideFor 强度决定每个载荷比特占用的载体字节间隔，
// 间隔越大改动越稀疏、越不可察觉。
func strideFor(strength models.EmbedStrength) int {
	switch strength {
	case models.StrengthLow:
		return 4
	case models.StrengthHigh:
		return 1
	default:
		return 2
	}
}

// EmbedPayload 将加密后的身份载荷按冗余份数散布进帧缓冲的最低有效位。
// 原地修改并返回同一缓冲；热路径上不做任何 I/O。
func EmbedPayload(frame []byte, id Identity, seq uint64, key []byte, cfg *models.WatermarkConfiguration) (*EmbedResult, error) {
	payload := buildPayload(id, seq, cfg)
	raw, err := canonicalEnc.Marshal(payload)
	if err != nil {
		return nil, err
	}

	ciphertext, err := securestore.EncryptBytes(key, raw)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) > maxCiphertext {
		return nil, fmt.Errorf("payload too large: %d bytes", len(ciphertext))
	}

	packet := make([]byte, 0, packetHeaderSize+len(ciphertext))
	packet = append(packet, packetMagic...)
	packet = append(packet, methodByteLSB)
	packet = binary.BigEndian.AppendUint16(packet, uint16(len(ciphertext)))
	packet = append(packet, ciphertext...)

	redundancy := cfg.Redundancy
	if redundancy < 1 {
		redundancy = 1
	}
	stride := strideFor(cfg.Strength)
	bitsNeeded := len(packet) * 8
	copySpan := bitsNeeded * stride
	if copySpan*redundancy > len(frame) {
		return nil, fmt.Errorf("frame too small: need %d bytes for %d copies, have %d",
			copySpan*redundancy, redundancy, len(frame))
	}

	// 各副本等距摆放，局部损毁后多数表决仍可恢复
	regionSize := len(frame) / redundancy
	for copyIdx := 0; copyIdx < redundancy; copyIdx++ {
		offset := copyIdx * regionSize
		writeBits(frame[offset:offset+regionSize], packet, stride)
	}

	sum := blake3.Sum256(raw)
	return &EmbedResult{
		Frame:       frame,
		PayloadKey:  uuid.New().String(),
		PayloadHash: hex.EncodeToString(sum[:]),
		Method:      models.EmbedLSB,
		BytesUsed:   bitsNeeded * redundancy,
	}, nil
}

// ExtractPayload 按多数表决还原数据包并解密。
// 只有持有租户密钥的一方才能恢复载荷。
func ExtractPayload(frame []byte, key []byte, cfg *models.WatermarkConfiguration) (*Payload, error) {
	redundancy := cfg.Redundancy
	if redundancy < 1 {
		redundancy = 1
	}
	stride := strideFor(cfg.Strength)
	regionSize := len(frame) / redundancy

	// 先表决出头部，再按密文长度表决剩余部分
	header := voteBytes(frame, regionSize, redundancy, stride, 0, packetHeaderSize)
	if len(header) < packetHeaderSize || !bytes.Equal(header[:4], packetMagic) {
		return nil, fmt.Errorf("no embedded payload found")
	}
	if header[4] != methodByteLSB {
		return nil, fmt.Errorf("unsupported embed method: 0x%02x", header[4])
	}
	ctLen := int(binary.BigEndian.Uint16(header[5:7]))
	packetLen := packetHeaderSize + ctLen
	if packetLen*8*stride > regionSize {
		return nil, fmt.Errorf("embedded length exceeds frame capacity")
	}

	packet := voteBytes(frame, regionSize, redundancy, stride, 0, packetLen)
	plaintext, err := securestore.DecryptBytes(key, packet[packetHeaderSize:])
	if err != nil {
		return nil, fmt.Errorf("payload decryption failed: %w", err)
	}

	var payload Payload
	if err := cbor.Unmarshal(plaintext, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// writeBits 将数据按 MSB 优先写入每 stride 个字节的最低位
func writeBits(region, data []byte, stride int) {
	for bitIdx := 0; bitIdx < len(data)*8; bitIdx++ {
		bit := (data[bitIdx/8] >> (7 - uint(bitIdx%8))) & 1
		pos := bitIdx * stride
		region[pos] = (region[pos] &^ 1) | bit
	}
}

// voteBytes 跨副本逐比特多数表决，抗局部有损重编码
func voteBytes(frame []byte, regionSize, redundancy, stride, start, length int) []byte {
	out := make([]byte, length)
	for byteIdx := start; byteIdx < start+length; byteIdx++ {
		var value byte
		for bit := 0; bit < 8; bit++ {
			bitIdx := byteIdx*8 + bit
			pos := bitIdx * stride
			votes := 0
			counted := 0
			for copyIdx := 0; copyIdx < redundancy; copyIdx++ {
				offset := copyIdx*regionSize + pos
				if offset >= len(frame) {
					continue
				}
				counted++
				votes += int(frame[offset] & 1)
			}
			if counted > 0 && votes*2 > counted {
				value |= 1 << (7 - uint(bit))
			}
		}
		out[byteIdx-start] = value
	}
	return out
}
