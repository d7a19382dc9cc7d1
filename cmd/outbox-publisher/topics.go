package main

import (
	"context"
	"errors"
	"sync"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

type topicSource interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type topicPublisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
	ResumePublish(orderingKey string)
	Stop()
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// topicCache keeps one ordered publisher per topic for the life of the
// process so batching and ordering state survive across polls.
type topicCache struct {
	source topicSource
	open   func(topic string) topicPublisher

	mu         sync.Mutex
	publishers map[string]topicPublisher
}

func newTopicCache(source topicSource) *topicCache {
	return &topicCache{
		source:     source,
		open:       func(topic string) topicPublisher { return openGCPPublisher(source, topic) },
		publishers: map[string]topicPublisher{},
	}
}

func (c *topicCache) get(topic string) topicPublisher {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pub, ok := c.publishers[topic]; ok {
		return pub
	}
	pub := c.open(topic)
	if pub != nil {
		c.publishers[topic] = pub
	}
	return pub
}

func (c *topicCache) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for topic, pub := range c.publishers {
		pub.Stop()
		delete(c.publishers, topic)
	}
}

func openGCPPublisher(source topicSource, topic string) topicPublisher {
	p := source.Publisher(topic)
	if p == nil {
		return nil
	}
	p.EnableMessageOrdering = true
	return &gcpPublisher{p: p}
}

type gcpPublisher struct {
	p *gcppubsub.Publisher
}

func (g *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return gcpResult{r: g.p.Publish(ctx, msg)}
}

func (g *gcpPublisher) ResumePublish(orderingKey string) { g.p.ResumePublish(orderingKey) }

func (g *gcpPublisher) Stop() { g.p.Stop() }

type gcpResult struct {
	r *gcppubsub.PublishResult
}

func (g gcpResult) Get(ctx context.Context) (string, error) {
	if g.r == nil {
		return "", errors.New("publish result is nil")
	}
	return g.r.Get(ctx)
}
