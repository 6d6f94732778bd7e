package gatt

import (
	"errors"
	"fmt"
	"sync"
)

// Property is a characteristic property bitmask as carried on the TNP wire.
type Property byte

// Characteristic properties, combinable.
const (
	PropRead     Property = 0x01
	PropWrite    Property = 0x02
	PropNotify   Property = 0x04
	PropIndicate Property = 0x08
)

// MaxValueSize is the largest characteristic value the mirror stores, per the
// ATT maximum attribute length.
const MaxValueSize = 512

// Errors returned by mirror operations. Sessions map these onto TNP response
// codes; the BLE peripheral maps them onto ATT status bytes.
var (
	ErrNoSuchService        = errors.New("gatt: no such service")
	ErrNoSuchCharacteristic = errors.New("gatt: no such characteristic")
	ErrNotReadable          = errors.New("gatt: characteristic not readable")
	ErrNotWritable          = errors.New("gatt: characteristic not writable")
	ErrNotSubscribable      = errors.New("gatt: characteristic supports neither notify nor indicate")
	ErrValueTooLong         = errors.New("gatt: value exceeds maximum attribute length")
	ErrDuplicateUUID        = errors.New("gatt: UUID already registered")
)

// WriteHandler is invoked after a write has been committed to the mirror.
// The value slice must not be retained.
type WriteHandler func(value []byte)

// Subscriber receives notifications fanned out by the mirror. Implementations
// must not block: the TCP session implementation drops when its outbound
// queue is full, the BLE implementation hands off to the HCI stack.
type Subscriber interface {
	// SubscriberID identifies the session or transport holding the
	// subscription.
	SubscriberID() string
	// Notify delivers a characteristic value change.
	Notify(u UUID, value []byte)
}

// CharacteristicSpec describes one characteristic at registration time.
type CharacteristicSpec struct {
	UUID    UUID
	Props   Property
	Value   []byte
	OnWrite WriteHandler
}

// characteristic is the mirror's authoritative record for one attribute.
type characteristic struct {
	uuid    UUID
	props   Property
	value   []byte
	onWrite WriteHandler
	subs    map[string]Subscriber
}

// service groups characteristics in registration order.
type service struct {
	uuid  UUID
	chars []*characteristic
}

// Mirror is the in-memory GATT database shared by every transport. It owns
// characteristic values and subscriber sets; sessions hold only their own
// subscriber identity.
//
// All methods are safe for concurrent use. Value updates and subscriber-set
// changes happen under a single short-lived lock; notification I/O always
// happens outside the lock against a snapshot of the subscriber set.
type Mirror struct {
	mu       sync.Mutex
	services []*service
	byUUID   map[UUID]*service
	chars    map[UUID]*characteristic
}

// NewMirror creates an empty mirror. Services are registered once at startup;
// the tree never shrinks.
func NewMirror() *Mirror {
	return &Mirror{
		byUUID: make(map[UUID]*service),
		chars:  make(map[UUID]*characteristic),
	}
}

// RegisterService adds a service and its characteristics. UUIDs must be
// unique across the whole tree.
func (m *Mirror) RegisterService(u UUID, specs []CharacteristicSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byUUID[u]; exists {
		return fmt.Errorf("service %s: %w", u, ErrDuplicateUUID)
	}
	if _, exists := m.chars[u]; exists {
		return fmt.Errorf("service %s: %w", u, ErrDuplicateUUID)
	}

	svc := &service{uuid: u}
	for _, spec := range specs {
		if _, exists := m.chars[spec.UUID]; exists {
			return fmt.Errorf("characteristic %s: %w", spec.UUID, ErrDuplicateUUID)
		}
		if _, exists := m.byUUID[spec.UUID]; exists {
			return fmt.Errorf("characteristic %s: %w", spec.UUID, ErrDuplicateUUID)
		}
		if len(spec.Value) > MaxValueSize {
			return fmt.Errorf("characteristic %s: %w", spec.UUID, ErrValueTooLong)
		}
		c := &characteristic{
			uuid:    spec.UUID,
			props:   spec.Props,
			value:   append([]byte(nil), spec.Value...),
			onWrite: spec.OnWrite,
			subs:    make(map[string]Subscriber),
		}
		svc.chars = append(svc.chars, c)
		m.chars[spec.UUID] = c
	}

	m.services = append(m.services, svc)
	m.byUUID[u] = svc
	return nil
}

// SetWriteHandler installs (or replaces) the write handler on an existing
// characteristic. This is the hook collaborators use to own write parsing for
// characteristics someone else registered.
func (m *Mirror) SetWriteHandler(u UUID, h WriteHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.chars[u]
	if !ok {
		return ErrNoSuchCharacteristic
	}
	c.onWrite = h
	return nil
}

// ServiceUUIDs returns the registered service UUIDs in registration order.
// This is the stable list DISCOVER_SERVICES replies with and the list the
// mDNS advertiser mirrors into TXT.
func (m *Mirror) ServiceUUIDs() []UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	uuids := make([]UUID, len(m.services))
	for i, svc := range m.services {
		uuids[i] = svc.uuid
	}
	return uuids
}

// CharacteristicInfo describes one characteristic for discovery responses and
// for constructing the BLE attribute table.
type CharacteristicInfo struct {
	UUID  UUID
	Props Property
}

// ServiceInfo describes one service and its characteristics.
type ServiceInfo struct {
	UUID            UUID
	Characteristics []CharacteristicInfo
}

// Service returns discovery information for a single service.
func (m *Mirror) Service(u UUID) (ServiceInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	svc, ok := m.byUUID[u]
	if !ok {
		return ServiceInfo{}, ErrNoSuchService
	}
	return serviceInfoLocked(svc), nil
}

// Services returns discovery information for the whole tree in registration
// order.
func (m *Mirror) Services() []ServiceInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]ServiceInfo, len(m.services))
	for i, svc := range m.services {
		infos[i] = serviceInfoLocked(svc)
	}
	return infos
}

func serviceInfoLocked(svc *service) ServiceInfo {
	info := ServiceInfo{UUID: svc.uuid}
	for _, c := range svc.chars {
		info.Characteristics = append(info.Characteristics, CharacteristicInfo{
			UUID:  c.uuid,
			Props: c.props,
		})
	}
	return info
}

// Properties returns the property set of a characteristic.
func (m *Mirror) Properties(u UUID) (Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.chars[u]
	if !ok {
		return 0, ErrNoSuchCharacteristic
	}
	return c.props, nil
}

// Value returns a copy of the current value of a characteristic.
func (m *Mirror) Value(u UUID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.chars[u]
	if !ok {
		return nil, ErrNoSuchCharacteristic
	}
	return append([]byte(nil), c.value...), nil
}

// Write replaces the value of a writable characteristic and then invokes its
// write handler, if any. A zero-length write is valid. The handler runs
// outside the mirror lock, so it may itself call back into the mirror (the
// FTMS control point path notifies from its handler).
func (m *Mirror) Write(u UUID, value []byte) error {
	if len(value) > MaxValueSize {
		return ErrValueTooLong
	}

	m.mu.Lock()
	c, ok := m.chars[u]
	if !ok {
		m.mu.Unlock()
		return ErrNoSuchCharacteristic
	}
	if c.props&PropWrite == 0 {
		m.mu.Unlock()
		return ErrNotWritable
	}
	c.value = append(c.value[:0], value...)
	handler := c.onWrite
	m.mu.Unlock()

	if handler != nil {
		handler(append([]byte(nil), value...))
	}
	return nil
}

// Subscribe adds a subscriber to a characteristic that supports notify or
// indicate.
func (m *Mirror) Subscribe(sub Subscriber, u UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.chars[u]
	if !ok {
		return ErrNoSuchCharacteristic
	}
	if c.props&(PropNotify|PropIndicate) == 0 {
		return ErrNotSubscribable
	}
	c.subs[sub.SubscriberID()] = sub
	return nil
}

// Unsubscribe removes one subscription. Unknown UUIDs and absent
// subscriptions are no-ops.
func (m *Mirror) Unsubscribe(id string, u UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.chars[u]; ok {
		delete(c.subs, id)
	}
}

// DropSession removes a session from every subscriber set. Runs on session
// teardown, including abnormal termination.
func (m *Mirror) DropSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.chars {
		delete(c.subs, id)
	}
}

// HasSubscribers reports whether any subscriber is registered on the
// characteristic. The keep-alive loop uses this to gate its timer.
func (m *Mirror) HasSubscribers(u UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.chars[u]
	return ok && len(c.subs) > 0
}

// IsSubscribed reports whether the given session holds a subscription on the
// characteristic.
func (m *Mirror) IsSubscribed(id string, u UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.chars[u]
	if !ok {
		return false
	}
	_, subscribed := c.subs[id]
	return subscribed
}

// Notify replaces the characteristic value and fans the new value out to
// every current subscriber. The subscriber set is snapshotted under the lock;
// delivery happens outside it so a slow transport never blocks the mirror.
// Each subscriber receives its own copy of the value.
func (m *Mirror) Notify(u UUID, value []byte) error {
	if len(value) > MaxValueSize {
		return ErrValueTooLong
	}

	m.mu.Lock()
	c, ok := m.chars[u]
	if !ok {
		m.mu.Unlock()
		return ErrNoSuchCharacteristic
	}
	if c.props&(PropNotify|PropIndicate) == 0 {
		m.mu.Unlock()
		return ErrNotSubscribable
	}
	c.value = append(c.value[:0], value...)
	snapshot := make([]Subscriber, 0, len(c.subs))
	for _, sub := range c.subs {
		snapshot = append(snapshot, sub)
	}
	m.mu.Unlock()

	for _, sub := range snapshot {
		sub.Notify(u, append([]byte(nil), value...))
	}
	return nil
}
