package pack

import (
	guuid "github.com/google/uuid"
	"go.minekube.com/gate/pkg/edition/java/proxy"
	"go.minekube.com/gate/pkg/util/uuid"

	"go.minekube.com/serverpacks/pkg/settings"
)

// ID returns the resource pack ID for url.
// The same URL always maps to the same ID so clients replace rather than
// stack the pack when it is pushed again.
func ID(url string) uuid.UUID {
	return uuid.UUID(guuid.NewSHA1(guuid.NameSpaceURL, []byte(url)))
}

// InfoFor builds the resource pack offer described by s.
// It returns false if s has no pack URL.
//
// A malformed prompt is left out of the offer.
func InfoFor(s settings.Settings) (proxy.ResourcePackInfo, bool) {
	if s.URL == "" {
		return proxy.ResourcePackInfo{}, false
	}
	info := proxy.ResourcePackInfo{
		ID:          ID(s.URL),
		URL:         s.URL,
		Hash:        s.HashBytes(),
		ShouldForce: s.Required,
		Origin:      proxy.PluginOnProxyResourcePackOrigin,
	}
	if prompt, err := s.PromptComponent(); err == nil && prompt != nil {
		info.Prompt = prompt
	}
	return info, true
}
