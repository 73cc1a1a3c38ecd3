package webrtc_ext

import (
	"fmt"

	"github.com/pion/webrtc/v3"
	"github.com/rivulet-video/rivulet/pkg/model"
)

// PeerConnectionFactory constructs pre-configured peer connections for the
// media session. The API (codecs etc.) is shared; the ICE configuration
// comes from whatever the coordinator handed out on join.
type PeerConnectionFactory struct {
	api *webrtc.API
}

func NewPeerConnectionFactory() (*PeerConnectionFactory, error) {
	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("failed to register default codecs: %w", err)
	}

	return &PeerConnectionFactory{
		api: webrtc.NewAPI(webrtc.WithMediaEngine(mediaEngine)),
	}, nil
}

// CreatePeerConnection creates a peer connection configured with the given
// ICE servers.
func (f *PeerConnectionFactory) CreatePeerConnection(
	iceServers []model.IceServer,
) (*webrtc.PeerConnection, error) {
	return f.api.NewPeerConnection(webrtc.Configuration{
		ICEServers: toICEServers(iceServers),
	})
}

func toICEServers(servers []model.IceServer) []webrtc.ICEServer {
	iceServers := make([]webrtc.ICEServer, 0, len(servers))
	for _, server := range servers {
		iceServers = append(iceServers, webrtc.ICEServer{
			URLs:           server.URLs,
			Username:       server.Username,
			Credential:     server.Password,
			CredentialType: webrtc.ICECredentialTypePassword,
		})
	}
	return iceServers
}
