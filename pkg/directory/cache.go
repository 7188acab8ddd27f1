// Copyright 2023 s3bridge authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package directory

import (
	"context"
	"time"

	cache "github.com/patrickmn/go-cache"
)

const DefaultCachePurgeInterval = 1 * time.Minute

// CachedDirectory wraps a Directory with a TTL read cache. Only
// positive lookups are cached: a service added after a miss is
// visible on the next call.
type CachedDirectory struct {
	directory Directory
	cache     *cache.Cache
	ttl       time.Duration
}

func NewCachedDirectory(directory Directory, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{
		directory: directory,
		cache:     cache.New(ttl, DefaultCachePurgeInterval),
		ttl:       ttl,
	}
}

func (d *CachedDirectory) Lookup(ctx context.Context, serviceName string) (*ServiceAuthorization, error) {
	serviceName = Normalize(serviceName)

	if item, found := d.cache.Get(serviceName); found {
		cacheHit.Inc()
		return item.(*ServiceAuthorization), nil
	}
	cacheMiss.Inc()

	auth, err := d.directory.Lookup(ctx, serviceName)
	if err != nil {
		return nil, err
	}

	d.cache.Set(serviceName, auth, d.ttl)
	return auth, nil
}

func (d *CachedDirectory) Enumerate(ctx context.Context) ([]*ServiceAuthorization, error) {
	return d.directory.Enumerate(ctx)
}
