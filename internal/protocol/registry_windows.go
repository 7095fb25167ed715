//go:build windows

package protocol

import (
	"golang.org/x/sys/windows/registry"
)

// RegistryStore writes under a Windows registry hive.
type RegistryStore struct {
	Root registry.Key
}

func (s RegistryStore) SetString(key, name, value string) error {
	k, _, err := registry.CreateKey(s.Root, key, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()
	return k.SetStringValue(name, value)
}

// NewSystemRegistrar registers in HKEY_CURRENT_USER, which needs no
// administrator rights.
func NewSystemRegistrar() Registrar {
	return StoreRegistrar{
		Store: RegistryStore{Root: registry.CURRENT_USER},
		Root:  "HKEY_CURRENT_USER",
	}
}
