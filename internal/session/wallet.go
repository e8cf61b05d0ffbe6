package session

import (
	"strings"
	"sync"
)

// Wallet is the wallet-connection signal of a session. Connecting only records the
// address; no chain interaction happens here.
type Wallet struct {
	mu      sync.RWMutex
	address string
}

// Connect marks the wallet connected with the given address.
func (w *Wallet) Connect(address string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.address = strings.ToLower(strings.TrimSpace(address))
}

func (w *Wallet) Disconnect() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.address = ""
}

func (w *Wallet) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.address != ""
}

func (w *Wallet) Address() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.address
}

// ShortAddress renders the address as 0x1234…abcd for display.
func (w *Wallet) ShortAddress() string {
	address := w.Address()
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}
