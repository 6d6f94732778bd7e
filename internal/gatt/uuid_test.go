package gatt

import "testing"

func TestParseUUID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		want    string
	}{
		{
			name:  "zwift ride service",
			input: "0000FC82-0000-1000-8000-00805F9B34FB",
			want:  "0000fc82-0000-1000-8000-00805f9b34fb",
		},
		{
			name:  "lowercase without dashes",
			input: "0000000319ca465186e5fa29dcdd09d1",
			want:  "00000003-19ca-4651-86e5-fa29dcdd09d1",
		},
		{
			name:    "too short",
			input:   "fc82",
			wantErr: true,
		},
		{
			name:    "not hex",
			input:   "zzzzzzzz-0000-1000-8000-00805f9b34fb",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := ParseUUID(tt.input)

			if (err != nil) != tt.wantErr {
				t.Errorf("ParseUUID() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && u.String() != tt.want {
				t.Errorf("String() = %s, want %s", u, tt.want)
			}
		})
	}
}

func TestUUID16(t *testing.T) {
	tests := []struct {
		name  string
		short uint16
		want  string
	}{
		{"ftms", 0x1826, "00001826-0000-1000-8000-00805f9b34fb"},
		{"control point", 0x2ad9, "00002ad9-0000-1000-8000-00805f9b34fb"},
		{"zero", 0x0000, "00000000-0000-1000-8000-00805f9b34fb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := UUID16(tt.short)
			if u.String() != tt.want {
				t.Errorf("UUID16(0x%04x) = %s, want %s", tt.short, u, tt.want)
			}

			got, ok := u.Short16()
			if !ok {
				t.Fatal("Short16() reported no short form")
			}
			if got != tt.short {
				t.Errorf("Short16() = 0x%04x, want 0x%04x", got, tt.short)
			}
		})
	}
}

func TestShortString(t *testing.T) {
	tests := []struct {
		name string
		uuid UUID
		want string
	}{
		{"ftms short form", FTMSService, "1826"},
		{"ride service short form", RideService, "FC82"},
		{"custom uuid has no short form", RideSyncRX, "00000003-19CA-4651-86E5-FA29DCDD09D1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.uuid.ShortString(); got != tt.want {
				t.Errorf("ShortString() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsShort(t *testing.T) {
	if !FTMSService.IsShort() {
		t.Error("FTMS service should have a short form")
	}
	if RideSyncTX.IsShort() {
		t.Error("Ride Sync TX must not have a short form")
	}

	// A UUID that differs from the base suffix only in the last byte.
	almost := MustParseUUID("00001826-0000-1000-8000-00805f9b34fc")
	if almost.IsShort() {
		t.Error("near-base UUID must not have a short form")
	}
}
