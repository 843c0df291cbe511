// internal/writer/modbus/client_test.go
package modbus

import "testing"

func TestPackRegisters_BigEndian(t *testing.T) {
	got := packRegisters([]uint16{0x0102, 0xA0FF})
	want := []byte{0x01, 0x02, 0xA0, 0xFF}
	if string(got) != string(want) {
		t.Fatalf("got=%x want=%x", got, want)
	}
}

func TestNewEndpointClient_RequiresEndpoint(t *testing.T) {
	if _, err := NewEndpointClient(Config{}); err == nil {
		t.Fatalf("expected endpoint error")
	}
}
