package kvconf

import "testing"

func TestParse_TypedAccess(t *testing.T) {
	m := Parse("server=mqtt.local;port=1883;qos=1;")

	if got := m.GetSz("server", ""); got != "mqtt.local" {
		t.Errorf("GetSz(server) = %q, want %q", got, "mqtt.local")
	}
	if got := m.GetInt("port", 0); got != 1883 {
		t.Errorf("GetInt(port) = %d, want 1883", got)
	}
	if got := m.GetInt("qos", 0); got != 1 {
		t.Errorf("GetInt(qos) = %d, want 1", got)
	}
}

func TestParse_TrimsAndOverwrites(t *testing.T) {
	m := Parse(" a = 1 ; b = two ; a = 3 ;")

	if got := m.GetInt("a", 0); got != 3 {
		t.Errorf("GetInt(a) = %d, want 3 (later assignment wins)", got)
	}
	if got := m.GetStr("b", ""); got != "two" {
		t.Errorf("GetStr(b) = %q, want %q", got, "two")
	}
}

func TestParse_MalformedPairs(t *testing.T) {
	m := Parse("no-assigner;=novalue-key;ok=1;")

	if got := m.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
	if got := m.GetInt("ok", 0); got != 1 {
		t.Errorf("GetInt(ok) = %d, want 1", got)
	}
}

func TestString_OrderedByKey(t *testing.T) {
	m := New()
	m.Add("zeta", "z")
	m.AddInt("alpha", 7)
	m.AddUint8("mid", 200)

	if got := m.String(); got != "alpha=7;mid=200;zeta=z;" {
		t.Errorf("String() = %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	m := New()
	m.Add("server", "log.local")
	m.AddUint16("port", 4567)
	m.AddFloat("scale", 1.5, -1)
	m.AddInt("level", -2)

	again := Parse(m.String())
	if got := again.String(); got != m.String() {
		t.Errorf("round trip: %q != %q", got, m.String())
	}
	if got := again.GetFloat("scale", 0); got != 1.5 {
		t.Errorf("GetFloat(scale) = %v, want 1.5", got)
	}
	if got := again.GetInt("level", 0); got != -2 {
		t.Errorf("GetInt(level) = %d, want -2", got)
	}
}

func TestGetBool(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"1", false, true},
		{"true", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"0", true, false},
		{"off", true, false},
		{"maybe", true, true}, // unparseable keeps default
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			m := Parse("flag=" + tt.value + ";")
			if got := m.GetBool("flag", tt.def); got != tt.want {
				t.Errorf("GetBool(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}

	m := New()
	if got := m.GetBool("missing", true); got != true {
		t.Errorf("GetBool(missing) = %v, want default true", got)
	}
}

func TestZeroValueMap(t *testing.T) {
	var m Map
	m.Add("k", "v")
	if got := m.GetStr("k", ""); got != "v" {
		t.Errorf("GetStr(k) = %q, want %q", got, "v")
	}
}
