package cache

import (
	"net/url"
	"strconv"
	"strings"
)

const prefix = "catalog"

type Key struct {
	Namespace string
	parts     []string
}

func (k Key) String() string {
	return prefix + ":" + k.Namespace + ":" + strings.Join(k.parts, ":")
}

// WithSearch scopes the key to a listing filter; an empty term leaves it unchanged.
func (k Key) WithSearch(term string) Key {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return k
	}
	parts := append(append([]string(nil), k.parts...), "q="+url.QueryEscape(term))
	return Key{Namespace: k.Namespace, parts: parts}
}

func AllProducts(userID uint) Key {
	if userID == 0 {
		return Key{Namespace: "products", parts: []string{"all", "anon"}}
	}
	return Key{Namespace: "products", parts: []string{"all", "user", strconv.FormatUint(uint64(userID), 10)}}
}

func CategoryList() Key {
	return Key{Namespace: "categories", parts: []string{"list"}}
}

func CategoryProducts(slug string, userID uint) Key {
	parts := []string{slug, "products"}
	if userID != 0 {
		parts = append(parts, "user", strconv.FormatUint(uint64(userID), 10))
	}
	return Key{Namespace: "categories", parts: parts}
}

func AttributeKeys() Key {
	return Key{Namespace: "attributes", parts: []string{"keys"}}
}

func AttributeValues() Key {
	return Key{Namespace: "attributes", parts: []string{"values"}}
}
