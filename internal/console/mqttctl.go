package console

import (
	"fmt"
	"time"

	"github.com/nerrad567/gray-node-agent/internal/envstore"
	"github.com/nerrad567/gray-node-agent/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-node-agent/internal/kvconf"
	"github.com/nerrad567/gray-node-agent/internal/token"
)

// mqttFeature controls the broker session and owns the mqtt env record.
// The first console to begin (the serial one) binds the <root>/cmd
// subscription; its payloads are dispatched quiet.
type mqttFeature struct{}

// MQTT creates the broker session feature.
func MQTT() Feature { return &mqttFeature{} }

func (f *mqttFeature) Name() string { return "mqtt" }

func (f *mqttFeature) Begin(c *Console) error {
	if err := c.Dispatcher().Register("mqtt", f.handle(c),
		"mqtt connect, mqtt stop, mqtt server, mqtt port, mqtt qos, mqtt root, mqtt heartbeat, mqtt will, mqtt list, mqtt save, mqtt load",
		"MQTT"); err != nil {
		return err
	}

	deps := c.Deps()
	if deps.MQTT == nil || deps.cmdBound {
		return nil
	}
	deps.cmdBound = true
	return deps.MQTT.Subscribe(mqtt.TopicCmd, func(topic string, payload []byte) {
		c.Handle(string(payload), true)
	})
}

func (f *mqttFeature) Loop(c *Console, now time.Time) {}

func (f *mqttFeature) Info(c *Console) {
	s := c.Deps().MQTT
	if s == nil {
		c.Printf("mqtt: not configured\n")
		return
	}
	host, port := s.Broker()
	c.Printf("mqtt: %s, %s:%d, root %s\n", s.State(), host, port, s.Root())
}

func (f *mqttFeature) handle(c *Console) func(line string, quiet bool) bool {
	return func(line string, quiet bool) bool {
		tok := token.New(line, " ")
		if tok.Item(0) != "mqtt" {
			return false
		}
		s := c.Deps().MQTT
		if s == nil {
			c.Printf("mqtt: not configured\n")
			return true
		}

		switch tok.Item(1) {
		case "connect":
			f.connect(c, s, tok)
		case "stop":
			s.Stop()
		case "server":
			_, port := s.Broker()
			s.SetBroker(tok.Item(2), port)
		case "port":
			host, _ := s.Broker()
			s.SetBroker(host, int(tok.Int(2, 0)))
		case "qos":
			if err := s.SetQoS(byte(tok.Int(2, 0))); err != nil {
				c.Printf("mqtt qos: %v\n", err)
			}
		case "root":
			s.SetRoot(tok.Item(2))
		case "heartbeat":
			s.SetHeartbeatPeriod(time.Duration(tok.Int(2, 0)) * time.Millisecond)
		case "will":
			switch v := tok.Item(2); v {
			case "0":
				s.SetWillEnabled(false)
			case "1":
				s.SetWillEnabled(true)
			case "":
				c.Printf("usage: mqtt will {0|1|<topic>}\n")
			default:
				s.SetWillTopic(v)
			}
		case "list":
			f.list(c, s)
		case "save":
			f.save(c, s)
		case "load":
			f.load(c, s, quiet)
		default:
			c.Printf("usage: mqtt {connect [<host> [<port>]]|stop|server <host>|port <n>|qos <0-2>|root <path>|heartbeat <ms>|will {0|1|<topic>}|list|save|load}\n")
		}
		return true
	}
}

func (f *mqttFeature) connect(c *Console, s *mqtt.Session, tok *token.Tokenizer) {
	host, port := s.Broker()
	if h := tok.Item(2); h != "" {
		host = h
	}
	if p := int(tok.Int(3, 0)); p != 0 {
		port = p
	}
	if err := s.Start(host, port); err != nil {
		c.Printf("mqtt connect: %v\n", err)
		return
	}
	c.Printf("connected to %s:%d\n", host, port)
}

func (f *mqttFeature) list(c *Console, s *mqtt.Session) {
	host, port := s.Broker()
	will := "off"
	if s.WillEnabled() {
		will = "on"
	}
	wtopic := s.WillTopic()
	if wtopic == "" {
		wtopic = s.Root()
	}

	t := NewTable("SETTING", "VALUE")
	t.Row("state", s.State().String())
	t.Row("server", fmt.Sprintf("%s:%d", host, port))
	t.Row("qos", fmt.Sprintf("%d", s.QoS()))
	t.Row("root", s.Root())
	t.Row("heartbeat", fmt.Sprintf("%dms", s.HeartbeatPeriod().Milliseconds()))
	t.Row("will", will)
	t.Row("will topic", wtopic)
	for _, sub := range s.Subscriptions() {
		t.Row("subscribed", sub)
	}
	t.Print(c.Stream())
}

func (f *mqttFeature) save(c *Console, s *mqtt.Session) {
	host, port := s.Broker()
	will := int32(0)
	if s.WillEnabled() {
		will = 1
	}

	m := kvconf.New()
	m.Add("server", host)
	m.AddInt("port", int32(port))
	m.AddUint8("qos", s.QoS())
	m.Add("root", s.Root())
	m.AddInt("heartbeat", int32(s.HeartbeatPeriod().Milliseconds()))
	m.AddInt("will", will)
	m.Add("willtopic", s.WillTopic())
	if err := c.Deps().Env.Save(envstore.NameMQTT, m.String()); err != nil {
		c.Printf("mqtt save: %v\n", err)
	}
}

func (f *mqttFeature) load(c *Console, s *mqtt.Session, quiet bool) {
	blob, err := c.Deps().Env.Load(envstore.NameMQTT)
	if err != nil {
		if !quiet {
			c.Printf("mqtt load: %v\n", err)
		}
		return
	}

	m := kvconf.Parse(blob)
	host, port := s.Broker()
	s.SetBroker(m.GetSz("server", host), int(m.GetInt("port", int32(port))))
	if err := s.SetQoS(byte(m.GetInt("qos", int32(s.QoS())))); err != nil {
		c.Printf("mqtt load: %v\n", err)
	}
	s.SetRoot(m.GetSz("root", s.Root()))
	s.SetHeartbeatPeriod(time.Duration(m.GetInt("heartbeat",
		int32(s.HeartbeatPeriod().Milliseconds()))) * time.Millisecond)
	s.SetWillEnabled(m.GetBool("will", s.WillEnabled()))
	s.SetWillTopic(m.GetSz("willtopic", s.WillTopic()))
}
