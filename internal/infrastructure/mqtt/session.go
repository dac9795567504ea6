package mqtt

import (
	"fmt"
	"net"
	"runtime"
	"sort"
	"strconv"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-node-agent/internal/infrastructure/config"
)

// State is the session lifecycle position.
type State int

const (
	StateDisconnected State = iota
	StateProbing
	StateConnected
	StateLost
)

// String returns the console rendering of the state.
func (s State) String() string {
	switch s {
	case StateProbing:
		return "probing"
	case StateConnected:
		return "connected"
	case StateLost:
		return "lost"
	default:
		return "disconnected"
	}
}

const (
	// probeInterval is the re-probe cadence while the broker is lost.
	probeInterval = 60 * time.Second

	// infoInterval is the cadence of the info/* gauges.
	infoInterval = 60 * time.Second

	probeTimeout = 2 * time.Second

	inboxSize = 64
)

// MessageHandler is invoked during Loop for each message on a subscribed
// topic. It runs on the cooperative loop, serialised with command dispatch.
type MessageHandler func(topic string, payload []byte)

// Logger receives session lifecycle messages. Satisfied by
// *logging.Pipeline.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type eventKind int

const (
	evMessage eventKind = iota
	evConnected
	evLost
)

// event crosses from paho's goroutines to the loop via the inbox.
type event struct {
	kind    eventKind
	topic   string
	payload []byte
	err     error
}

// subscription keeps the handler for one qualified topic so it can be
// restored after a reconnect.
type subscription struct {
	topic   string
	handler MessageHandler
}

// Session is the node's single MQTT broker session.
//
// Not safe for concurrent use: all methods run on the cooperative loop.
// Paho callbacks only enqueue events on the inbox.
type Session struct {
	cfg       config.MQTTConfig
	root      string
	qos       byte
	heartbeat time.Duration
	will      string

	client    pahomqtt.Client
	newClient func(*pahomqtt.ClientOptions) pahomqtt.Client
	dial      func(addr string, timeout time.Duration) (net.Conn, error)
	gauges    func() (freeMem uint64, fragmentation float64)
	log       Logger

	inbox chan event
	subs  map[string]subscription

	state         State
	started       time.Time
	lastProbe     time.Time
	lastInfo      time.Time
	lastHeartbeat time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithLogger routes lifecycle messages to log.
func WithLogger(log Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithGauges overrides the freemem/fragmentation source for the info
// topics.
func WithGauges(gauges func() (uint64, float64)) Option {
	return func(s *Session) { s.gauges = gauges }
}

// NewSession returns a disconnected Session configured from cfg.
func NewSession(cfg config.MQTTConfig, opts ...Option) *Session {
	s := &Session{
		cfg:       cfg,
		root:      cfg.Root,
		qos:       byte(cfg.QoS),
		heartbeat: time.Duration(cfg.Heartbeat) * time.Millisecond,
		will:      TopicStatus,
		newClient: pahomqtt.NewClient,
		dial: func(addr string, timeout time.Duration) (net.Conn, error) {
			return net.DialTimeout("tcp", addr, timeout)
		},
		gauges: heapGauges,
		log:    noopLogger{},
		inbox:  make(chan event, inboxSize),
		subs:   make(map[string]subscription),
		state:  StateDisconnected,
	}
	for _, o := range opts {
		o(s)
	}
	s.started = time.Now()
	return s
}

// Start probes the broker and connects. On success the session is
// Connected, the will is armed and "online" is published retained to the
// status topic.
func (s *Session) Start(host string, port int) error {
	s.cfg.Broker.Host = host
	s.cfg.Broker.Port = port

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	if !s.probe(addr) {
		s.state = StateDisconnected
		return fmt.Errorf("%w: %s", ErrUnreachable, addr)
	}
	s.state = StateProbing

	opts := buildClientOptions(s.cfg, s.willTopic())
	opts.SetOnConnectHandler(func(pahomqtt.Client) {
		s.enqueue(event{kind: evConnected})
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		s.enqueue(event{kind: evLost, err: err})
	})

	s.client = s.newClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		s.state = StateDisconnected
		return fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		s.state = StateDisconnected
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	s.state = StateConnected
	s.log.Info("mqtt connected to %s", addr)
	s.publishOnline()
	s.restoreSubscriptions()
	return nil
}

// Stop publishes "offline" retained to the status topic and disconnects.
func (s *Session) Stop() {
	if s.client == nil {
		s.state = StateDisconnected
		return
	}
	if s.state == StateConnected && s.client.IsConnected() {
		token := s.client.Publish(s.willTopic(), s.qos, true, "offline")
		token.WaitTimeout(defaultPublishTimeout)
	}
	s.client.Disconnect(defaultDisconnectQuiesce)
	s.state = StateDisconnected
	s.log.Info("mqtt disconnected")
}

// Loop applies queued broker events, re-probes a lost broker and publishes
// the heartbeat and info gauges. Called once per iteration of the main
// loop.
func (s *Session) Loop(now time.Time) {
	for drained := false; !drained; {
		select {
		case e := <-s.inbox:
			s.apply(e, now)
		default:
			drained = true
		}
	}

	if s.state == StateLost && now.Sub(s.lastProbe) >= probeInterval {
		s.lastProbe = now
		addr := net.JoinHostPort(s.cfg.Broker.Host, strconv.Itoa(s.cfg.Broker.Port))
		if s.probe(addr) {
			s.log.Info("mqtt broker %s reachable, reconnecting", addr)
			s.state = StateProbing
			s.client.Connect()
		}
	}

	if s.state != StateConnected {
		return
	}
	if s.heartbeat > 0 && now.Sub(s.lastHeartbeat) >= s.heartbeat {
		s.lastHeartbeat = now
		s.Publish(TopicHeartbeat, []byte(strconv.FormatInt(s.uptime(now).Milliseconds(), 10)), s.qos, false)
	}
	if now.Sub(s.lastInfo) >= infoInterval {
		s.lastInfo = now
		s.publishInfo(now)
	}
}

// apply handles one queued event on the loop goroutine.
func (s *Session) apply(e event, now time.Time) {
	switch e.kind {
	case evMessage:
		if h := s.handlerFor(e.topic); h != nil {
			h(e.topic, e.payload)
		}
	case evConnected:
		if s.state != StateConnected {
			s.state = StateConnected
			s.log.Info("mqtt reconnected")
			s.publishOnline()
			s.restoreSubscriptions()
		}
	case evLost:
		s.state = StateLost
		s.lastProbe = now
		s.log.Error("mqtt connection lost: %v", e.err)
	}
}

// Publish sends payload to topic resolved against the session root.
func (s *Session) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if s.state != StateConnected || s.client == nil {
		return ErrNotConnected
	}

	token := s.client.Publish(Qualify(s.root, topic), qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PublishString is a convenience wrapper over Publish.
func (s *Session) PublishString(topic, payload string, qos byte, retained bool) error {
	return s.Publish(topic, []byte(payload), qos, retained)
}

// Subscribe registers handler for topic resolved against the session root.
// Re-subscribing to the same topic replaces the handler. The registry is
// restored after a reconnect.
func (s *Session) Subscribe(topic string, handler MessageHandler) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}

	qualified := Qualify(s.root, topic)
	_, replacing := s.subs[qualified]
	s.subs[qualified] = subscription{topic: qualified, handler: handler}

	if s.state != StateConnected || replacing {
		// Broker-side subscription already exists or will be made on
		// (re)connect.
		return nil
	}
	token := s.client.Subscribe(qualified, s.qos, s.onMessage)
	if !token.WaitTimeout(defaultPublishTimeout) {
		delete(s.subs, qualified)
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		delete(s.subs, qualified)
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}
	return nil
}

// Unsubscribe drops the registry entry and the broker-side subscription.
func (s *Session) Unsubscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	qualified := Qualify(s.root, topic)
	delete(s.subs, qualified)

	if s.state != StateConnected || s.client == nil {
		return nil
	}
	token := s.client.Unsubscribe(qualified)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrUnsubscribeFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsubscribeFailed, err)
	}
	return nil
}

// Subscriptions returns the qualified subscribed topics, sorted.
func (s *Session) Subscriptions() []string {
	out := make([]string, 0, len(s.subs))
	for topic := range s.subs {
		out = append(out, topic)
	}
	sort.Strings(out)
	return out
}

// State returns the current lifecycle position.
func (s *Session) State() State { return s.state }

// Broker returns the configured broker endpoint.
func (s *Session) Broker() (string, int) {
	return s.cfg.Broker.Host, s.cfg.Broker.Port
}

// SetBroker records the endpoint used by the next Start.
func (s *Session) SetBroker(host string, port int) {
	s.cfg.Broker.Host = host
	s.cfg.Broker.Port = port
}

// Root returns the topic prefix.
func (s *Session) Root() string { return s.root }

// SetRoot changes the topic prefix for subsequent publishes and
// subscriptions. Existing subscriptions keep their qualified topics.
func (s *Session) SetRoot(root string) { s.root = root }

// QoS returns the default quality of service.
func (s *Session) QoS() byte { return s.qos }

// SetQoS sets the default quality of service.
func (s *Session) SetQoS(qos byte) error {
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	s.qos = qos
	return nil
}

// HeartbeatPeriod returns the heartbeat period. Zero means disabled.
func (s *Session) HeartbeatPeriod() time.Duration { return s.heartbeat }

// SetHeartbeatPeriod changes the heartbeat period. Zero disables it.
func (s *Session) SetHeartbeatPeriod(d time.Duration) { s.heartbeat = d }

// WillEnabled reports whether the last-will is armed at CONNECT.
func (s *Session) WillEnabled() bool { return s.cfg.Will }

// SetWillEnabled arms or disarms the last-will for the next Start.
func (s *Session) SetWillEnabled(enabled bool) { s.cfg.Will = enabled }

// WillTopic returns the configured will topic name, unresolved. Empty
// means the session root itself.
func (s *Session) WillTopic() string { return s.will }

// SetWillTopic changes the will topic for the next Start. The name is
// resolved against the root; empty falls back to the root path itself.
func (s *Session) SetWillTopic(topic string) { s.will = topic }

// onMessage runs on a paho goroutine and only enqueues.
func (s *Session) onMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	s.enqueue(event{kind: evMessage, topic: msg.Topic(), payload: msg.Payload()})
}

// enqueue drops the event when the inbox is full rather than blocking a
// paho goroutine.
func (s *Session) enqueue(e event) {
	select {
	case s.inbox <- e:
	default:
	}
}

func (s *Session) handlerFor(topic string) MessageHandler {
	if sub, ok := s.subs[topic]; ok {
		return sub.handler
	}
	for _, sub := range s.subs {
		if matchTopic(sub.topic, topic) {
			return sub.handler
		}
	}
	return nil
}

func (s *Session) probe(addr string) bool {
	conn, err := s.dial(addr, probeTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// willTopic resolves the will topic against the root. Status publishes
// ("online"/"offline") follow the will topic.
func (s *Session) willTopic() string {
	if s.will == "" {
		return s.root
	}
	return Qualify(s.root, s.will)
}

func (s *Session) publishOnline() {
	if s.client == nil {
		return
	}
	token := s.client.Publish(s.willTopic(), s.qos, true, "online")
	token.WaitTimeout(defaultPublishTimeout)
}

func (s *Session) restoreSubscriptions() {
	for _, sub := range s.subs {
		s.client.Subscribe(sub.topic, s.qos, s.onMessage)
	}
}

func (s *Session) publishInfo(now time.Time) {
	freemem, frag := s.gauges()
	s.Publish(TopicInfoFreeMem, []byte(strconv.FormatUint(freemem, 10)), s.qos, false)
	s.Publish(TopicInfoFragmentation, []byte(strconv.FormatFloat(frag, 'f', 1, 64)), s.qos, false)
	s.Publish(TopicInfoUptime, []byte(strconv.FormatInt(s.uptime(now).Milliseconds(), 10)), s.qos, false)
}

func (s *Session) uptime(now time.Time) time.Duration {
	return now.Sub(s.started)
}

// heapGauges approximates the firmware freemem/fragmentation gauges from
// the Go heap.
func heapGauges() (uint64, float64) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	free := ms.HeapIdle - ms.HeapReleased
	var frag float64
	if ms.HeapSys > 0 {
		frag = float64(ms.HeapIdle) / float64(ms.HeapSys) * 100
	}
	return free, frag
}

// matchTopic reports whether an MQTT filter with + and # wildcards matches
// a concrete topic.
func matchTopic(filter, topic string) bool {
	fparts := splitTopic(filter)
	tparts := splitTopic(topic)
	for i, fp := range fparts {
		if fp == "#" {
			return true
		}
		if i >= len(tparts) {
			return false
		}
		if fp != "+" && fp != tparts[i] {
			return false
		}
	}
	return len(fparts) == len(tparts)
}

func splitTopic(topic string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(topic); i++ {
		if topic[i] == '/' {
			parts = append(parts, topic[start:i])
			start = i + 1
		}
	}
	return append(parts, topic[start:])
}
