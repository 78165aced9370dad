package contract

import (
	"encoding/json"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-protos-go/ledger/queryresult"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Hand-rolled fakes for the stub and client identity. Only the methods the
// contract actually calls are implemented; anything else panics through the
// embedded nil interface.

const compositeKeySep = "\x00"

type mockEvent struct {
	name    string
	payload []byte
}

type mockStub struct {
	shim.ChaincodeStubInterface
	state  map[string][]byte
	events []mockEvent
	txTime time.Time
}

func newMockStub() *mockStub {
	return &mockStub{
		state:  make(map[string][]byte),
		txTime: time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC),
	}
}

func (s *mockStub) GetState(key string) ([]byte, error) {
	return s.state[key], nil
}

func (s *mockStub) PutState(key string, value []byte) error {
	s.state[key] = append([]byte(nil), value...)
	return nil
}

func (s *mockStub) DelState(key string) error {
	delete(s.state, key)
	return nil
}

func (s *mockStub) CreateCompositeKey(objectType string, attributes []string) (string, error) {
	key := compositeKeySep + objectType + compositeKeySep
	for _, attr := range attributes {
		key += attr + compositeKeySep
	}
	return key, nil
}

func (s *mockStub) GetStateByPartialCompositeKey(objectType string, attributes []string) (shim.StateQueryIteratorInterface, error) {
	prefix, _ := s.CreateCompositeKey(objectType, attributes)
	keys := []string{}
	for key := range s.state {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	kvs := make([]*queryresult.KV, 0, len(keys))
	for _, key := range keys {
		kvs = append(kvs, &queryresult.KV{Key: key, Value: s.state[key]})
	}
	return &mockIterator{kvs: kvs}, nil
}

func (s *mockStub) GetTxTimestamp() (*timestamppb.Timestamp, error) {
	return timestamppb.New(s.txTime), nil
}

func (s *mockStub) SetEvent(name string, payload []byte) error {
	s.events = append(s.events, mockEvent{name: name, payload: payload})
	return nil
}

type mockIterator struct {
	shim.StateQueryIteratorInterface
	kvs []*queryresult.KV
	idx int
}

func (it *mockIterator) HasNext() bool {
	return it.idx < len(it.kvs)
}

func (it *mockIterator) Next() (*queryresult.KV, error) {
	kv := it.kvs[it.idx]
	it.idx++
	return kv, nil
}

func (it *mockIterator) Close() error { return nil }

type mockClientIdentity struct {
	cid.ClientIdentity
	id string
}

func (c *mockClientIdentity) GetID() (string, error) { return c.id, nil }

func (c *mockClientIdentity) GetMSPID() (string, error) { return "TestMSP", nil }

type mockTxContext struct {
	stub   *mockStub
	caller string
}

func (c *mockTxContext) GetStub() shim.ChaincodeStubInterface { return c.stub }

func (c *mockTxContext) GetClientIdentity() cid.ClientIdentity {
	return &mockClientIdentity{id: c.caller}
}

// fixture wires one contract instance to one shared world state. Calls from
// different identities share the stub, mirroring sequential transactions
// against the same ledger.
type fixture struct {
	stub *mockStub
	cc   *ProvenanceSmartContract
}

func newFixture() *fixture {
	return &fixture{stub: newMockStub(), cc: &ProvenanceSmartContract{}}
}

// newInitializedFixture bootstraps the ledger with "admin-1" as the seeded
// admin.
func newInitializedFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture()
	if err := f.cc.InitLedger(f.as("admin-1")); err != nil {
		t.Fatalf("InitLedger failed: %v", err)
	}
	return f
}

func (f *fixture) as(caller string) *mockTxContext {
	return &mockTxContext{stub: f.stub, caller: caller}
}

// grant is a test helper performing an admin grant that must succeed.
func (f *fixture) grant(t *testing.T, role, target string) {
	t.Helper()
	if err := f.cc.GrantRole(f.as("admin-1"), role, target); err != nil {
		t.Fatalf("GrantRole(%s, %s) failed: %v", role, target, err)
	}
}

func (f *fixture) eventNames() []string {
	names := make([]string, 0, len(f.stub.events))
	for _, e := range f.stub.events {
		names = append(names, e.name)
	}
	return names
}

func (f *fixture) lastEvent(t *testing.T) mockEvent {
	t.Helper()
	if len(f.stub.events) == 0 {
		t.Fatal("expected at least one emitted event")
	}
	return f.stub.events[len(f.stub.events)-1]
}

func decodeEventPayload(t *testing.T, event mockEvent) map[string]interface{} {
	t.Helper()
	payload := map[string]interface{}{}
	if err := json.Unmarshal(event.payload, &payload); err != nil {
		t.Fatalf("failed to unmarshal %q event payload: %v", event.name, err)
	}
	return payload
}
