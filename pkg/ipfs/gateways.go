package ipfs

import (
	"strings"

	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// GatewayList is an ordered list of gateway URL prefixes. Position in the list
// is priority.
type GatewayList []string

var DefaultGateways = GatewayList{
	"https://ipfs.io/ipfs/",
	"https://gateway.pinata.cloud/ipfs/",
	"https://cloudflare-ipfs.com/ipfs/",
	"https://gateway.ipfs.io/ipfs/",
}

func NewGatewayList(prefixes ...string) (GatewayList, error) {
	if len(prefixes) == 0 {
		return nil, errors.New("at least one gateway required")
	}

	result := make(GatewayList, 0, len(prefixes))
	for idx, prefix := range prefixes {
		prefix = strings.TrimSpace(prefix)
		if prefix == "" {
			return nil, errors.From(errors.New("empty gateway prefix"), logan.F{
				"index": idx,
			})
		}
		if !strings.HasPrefix(prefix, "http://") && !strings.HasPrefix(prefix, "https://") {
			return nil, errors.From(errors.New("gateway must be an http(s) url"), logan.F{
				"index":   idx,
				"gateway": prefix,
			})
		}
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		result = append(result, prefix)
	}

	return result, nil
}

// URL builds the address of resourceID on the gateway at position idx.
func (l GatewayList) URL(idx int, resourceID string) string {
	return l[idx] + resourceID
}

// TrimResourceID turns "ipfs://<id>", "/ipfs/<id>" and "<id>" into "<id>".
func TrimResourceID(resourceID string) string {
	resourceID = strings.TrimSpace(resourceID)
	resourceID = strings.TrimPrefix(resourceID, "ipfs://")
	resourceID = strings.TrimLeft(resourceID, "/")
	resourceID = strings.TrimPrefix(resourceID, "ipfs/")
	return resourceID
}
