package cryptstate

import (
	"bytes"
	"math/rand"
	"testing"
)

func zeroedPair(t *testing.T) (sender, receiver *State) {
	t.Helper()
	sender = New()
	if err := sender.SetKey(make([]byte, KeySize)); err != nil {
		t.Fatal(err)
	}
	if err := sender.SetEncryptIV(make([]byte, KeySize)); err != nil {
		t.Fatal(err)
	}
	if err := sender.SetDecryptIV(make([]byte, KeySize)); err != nil {
		t.Fatal(err)
	}

	receiver = New()
	if err := receiver.SetKey(make([]byte, KeySize)); err != nil {
		t.Fatal(err)
	}
	if err := receiver.SetEncryptIV(make([]byte, KeySize)); err != nil {
		t.Fatal(err)
	}
	if err := receiver.SetDecryptIV(make([]byte, KeySize)); err != nil {
		t.Fatal(err)
	}
	return
}

// Scenario K1.
func TestRoundTripWithReplay(t *testing.T) {
	sender, receiver := zeroedPair(t)

	ciphertext, err := sender.Encrypt([]byte("Hello"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	var stats Stats
	plaintext, err := receiver.Decrypt(ciphertext, &stats)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(plaintext) != "Hello" {
		t.Fatalf("plaintext = %q, want %q", plaintext, "Hello")
	}
	if stats.Good != 1 || stats.Late != 0 || stats.Lost != 0 {
		t.Fatalf("stats = %+v, want {1 0 0}", stats)
	}

	if _, err := receiver.Decrypt(ciphertext, &stats); err != ErrReplay {
		t.Fatalf("second decrypt error = %v, want ErrReplay", err)
	}
}

func TestEncryptIVMonotone(t *testing.T) {
	sender, _ := zeroedPair(t)
	before := sender.EncryptIV
	if _, err := sender.Encrypt([]byte("x")); err != nil {
		t.Fatal(err)
	}
	after := sender.EncryptIV

	want := before
	incrementLE(&want)
	if after != want {
		t.Fatalf("EncryptIV = % X, want % X", after, want)
	}
}

func TestDecryptRollsBackOnAuthFailure(t *testing.T) {
	sender, receiver := zeroedPair(t)

	ciphertext, err := sender.Encrypt([]byte("hello world"))
	if err != nil {
		t.Fatal(err)
	}
	tampered := append([]byte(nil), ciphertext...)
	tampered[len(tampered)-1] ^= 0xFF

	before := receiver.DecryptIV
	var stats Stats
	if _, err := receiver.Decrypt(tampered, &stats); err != ErrAuthFailure {
		t.Fatalf("error = %v, want ErrAuthFailure", err)
	}
	if receiver.DecryptIV != before {
		t.Fatalf("DecryptIV changed after failed decrypt: got % X, want % X", receiver.DecryptIV, before)
	}
	if stats.Good != 0 {
		t.Fatalf("stats.Good = %d, want 0", stats.Good)
	}
}

func TestOutOfOrderAccounting(t *testing.T) {
	sender, receiver := zeroedPair(t)

	var packets [][]byte
	for i := 0; i < 5; i++ {
		ct, err := sender.Encrypt([]byte{byte(i)})
		if err != nil {
			t.Fatal(err)
		}
		packets = append(packets, ct)
	}

	var stats Stats
	// Deliver 0, 2, 3, 4 first, then the late packet 1.
	order := []int{0, 2, 3, 4, 1}
	for _, idx := range order {
		if _, err := receiver.Decrypt(packets[idx], &stats); err != nil {
			t.Fatalf("packet %d: %v", idx, err)
		}
	}

	if stats.Good != 5 {
		t.Fatalf("stats.Good = %d, want 5", stats.Good)
	}
	if stats.Late != 1 {
		t.Fatalf("stats.Late = %d, want 1", stats.Late)
	}
	// One packet (index 1) arrived late; it was briefly counted as lost
	// when 2 arrived out of sequence, then the late delivery cancels
	// that count back out.
	if stats.Lost != 0 {
		t.Fatalf("stats.Lost = %d, want 0", stats.Lost)
	}
}

func TestGenerateKeyReady(t *testing.T) {
	s := New()
	if s.Ready() {
		t.Fatal("fresh state should not be ready")
	}
	if err := s.GenerateKey(); err != nil {
		t.Fatal(err)
	}
	if !s.Ready() {
		t.Fatal("state should be ready after GenerateKey")
	}
}

func TestSetKeyBadLength(t *testing.T) {
	s := New()
	if err := s.SetKey(make([]byte, 15)); err != ErrBadKeyLength {
		t.Fatalf("error = %v, want ErrBadKeyLength", err)
	}
	if err := s.SetEncryptIV(make([]byte, 17)); err != ErrBadKeyLength {
		t.Fatalf("error = %v, want ErrBadKeyLength", err)
	}
}

func TestRoundTripRandomPlaintexts(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	sender, receiver := zeroedPair(t)

	for i := 0; i < 200; i++ {
		n := rng.Intn(300)
		plain := make([]byte, n)
		rng.Read(plain)

		ct, err := sender.Encrypt(plain)
		if err != nil {
			t.Fatal(err)
		}
		var stats Stats
		got, err := receiver.Decrypt(ct, &stats)
		if err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
		if !bytes.Equal(got, plain) {
			t.Fatalf("iteration %d: plaintext mismatch", i)
		}
		if receiver.DecryptIV != sender.EncryptIV {
			t.Fatalf("iteration %d: DecryptIV (% X) != EncryptIV (% X)", i, receiver.DecryptIV, sender.EncryptIV)
		}
	}
}
