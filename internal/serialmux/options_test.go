package serialmux

import (
	"testing"

	"go.bug.st/serial"
)

func TestPortOptions_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		in      PortOptions
		want    PortOptions
		wantErr bool
	}{
		{
			name: "zero value gets defaults",
			in:   PortOptions{},
			want: PortOptions{BaudRate: 9600, DataBits: 8, StopBits: 1, Parity: "N"},
		},
		{
			name: "negative baud rate defaults",
			in:   PortOptions{BaudRate: -5},
			want: PortOptions{BaudRate: 9600, DataBits: 8, StopBits: 1, Parity: "N"},
		},
		{
			name: "explicit values kept",
			in:   PortOptions{BaudRate: 115200, DataBits: 7, StopBits: 2, Parity: "even"},
			want: PortOptions{BaudRate: 115200, DataBits: 7, StopBits: 2, Parity: "E"},
		},
		{
			name: "parity words",
			in:   PortOptions{BaudRate: 4800, Parity: " odd "},
			want: PortOptions{BaudRate: 4800, DataBits: 8, StopBits: 1, Parity: "O"},
		},
		{name: "nonstandard baud", in: PortOptions{BaudRate: 12345}, wantErr: true},
		{name: "data bits too small", in: PortOptions{DataBits: 4}, wantErr: true},
		{name: "data bits too large", in: PortOptions{DataBits: 9}, wantErr: true},
		{name: "stop bits", in: PortOptions{StopBits: 3}, wantErr: true},
		{name: "parity", in: PortOptions{Parity: "mark"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Normalize() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPortOptions_SerialMode(t *testing.T) {
	tests := []struct {
		name string
		in   PortOptions
		want serial.Mode
	}{
		{"default", PortOptions{}, serial.Mode{BaudRate: 9600, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}},
		{"even", PortOptions{Parity: "E"}, serial.Mode{BaudRate: 9600, DataBits: 8, Parity: serial.EvenParity, StopBits: serial.OneStopBit}},
		{"odd two stop", PortOptions{BaudRate: 38400, Parity: "O", StopBits: 2}, serial.Mode{BaudRate: 38400, DataBits: 8, Parity: serial.OddParity, StopBits: serial.TwoStopBits}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, err := tt.in.SerialMode()
			if err != nil {
				t.Fatalf("SerialMode() error = %v", err)
			}
			if mode.BaudRate != tt.want.BaudRate || mode.DataBits != tt.want.DataBits ||
				mode.Parity != tt.want.Parity || mode.StopBits != tt.want.StopBits {
				t.Errorf("SerialMode() = %+v, want %+v", *mode, tt.want)
			}
		})
	}

	if _, err := (PortOptions{BaudRate: 12345}).SerialMode(); err == nil {
		t.Error("expected error for invalid options")
	}
}

func TestNewRealSerialMux_Errors(t *testing.T) {
	if _, err := NewRealSerialMux("/dev/null", PortOptions{Parity: "bogus"}); err == nil {
		t.Error("expected invalid options to fail before opening")
	}
	if _, err := NewRealSerialMux("/nonexistent/ttyGPS0", PortOptions{}); err == nil {
		t.Error("expected error opening a missing device")
	}
}
