package ledger

import (
	"encoding/json"
	"fmt"
	"os"
)

// ContractInterface is the local description of the deployed contract's
// surface: which methods and events exist. It is loaded from a JSON file
// produced at deployment time and guards against calling methods the
// deployed contract does not expose.
type ContractInterface struct {
	Methods []string `json:"methods"`
	Events  []string `json:"events"`
}

// LoadContractInterface reads the contract-interface description from disk.
func LoadContractInterface(path string) (*ContractInterface, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contract interface: %w", err)
	}
	var iface ContractInterface
	if err := json.Unmarshal(data, &iface); err != nil {
		return nil, fmt.Errorf("parse contract interface: %w", err)
	}
	if len(iface.Methods) == 0 {
		return nil, fmt.Errorf("contract interface %s lists no methods", path)
	}
	return &iface, nil
}

// HasMethod reports whether the deployed contract exposes the method.
func (i *ContractInterface) HasMethod(name string) bool {
	for _, m := range i.Methods {
		if m == name {
			return true
		}
	}
	return false
}
