package benchmarks

import (
	"context"
	"testing"

	"github.com/zoobzio/faultline"
	"github.com/zoobzio/faultline/json"
	"github.com/zoobzio/faultline/msgpack"
	ftest "github.com/zoobzio/faultline/testing"
)

func BenchmarkSerialize_Chain(b *testing.B) {
	err := ftest.ChainedError()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = faultline.Serialize(err)
	}
}

func BenchmarkSerialize_Circular(b *testing.B) {
	err := ftest.CircularError()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = faultline.Serialize(err)
	}
}

func BenchmarkDeserialize_Chain(b *testing.B) {
	plain := faultline.Serialize(ftest.ChainedError())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = faultline.Deserialize(plain)
	}
}

func BenchmarkProcessor_Store_JSON(b *testing.B) {
	proc := faultline.Use(json.New())
	err := ftest.ChainedError()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = proc.Store(context.Background(), err)
	}
}

func BenchmarkProcessor_Load_MessagePack(b *testing.B) {
	proc := faultline.Use(msgpack.New())
	data, _ := proc.Store(context.Background(), ftest.ChainedError())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = proc.Load(context.Background(), data)
	}
}

func BenchmarkProcessor_Send_WithMaskingRedaction(b *testing.B) {
	proc, _ := faultline.NewProcessor(json.New(),
		faultline.WithMask("email", faultline.MaskEmail),
		faultline.WithMask("clientIp", faultline.MaskIP),
		faultline.WithRedact("password", "***"),
	)
	err := ftest.SensitiveError()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = proc.Send(context.Background(), err)
	}
}

func BenchmarkFingerprint_BLAKE2b(b *testing.B) {
	err := ftest.ChainedError()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = faultline.Fingerprint(err, faultline.HashBLAKE2b)
	}
}

func BenchmarkFingerprint_SHA256(b *testing.B) {
	err := ftest.ChainedError()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = faultline.Fingerprint(err, faultline.HashSHA256)
	}
}
