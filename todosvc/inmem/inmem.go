// Package inmem provides a Consul-KV-backed token blacklist, for deployments
// that keep revocation state out of the relational store.
package inmem

import (
	"time"

	consul "github.com/hashicorp/consul/api"
	"github.com/hisakawa/todolist/todosvc"
)

const keyPrefix = "blacklist/"

type client struct {
	consul *consul.Client
}

func NewClient(c *consul.Client) todosvc.BlacklistRepository {
	return &client{c}
}

func (c *client) Add(token string) error {
	p := &consul.KVPair{
		Key:   keyPrefix + token,
		Value: []byte(time.Now().UTC().Format(time.RFC3339)),
	}
	_, err := c.consul.KV().Put(p, nil)

	return err
}

func (c *client) Contains(token string) (bool, error) {
	kv, _, err := c.consul.KV().Get(keyPrefix+token, nil)
	if err != nil {
		return false, err
	}

	return kv != nil, nil
}
