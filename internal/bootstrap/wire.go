package bootstrap

import (
	"yinlink/internal/config"
	"yinlink/internal/ports"
	"yinlink/internal/providers/livekitroom"
	"yinlink/internal/providers/tokenapi"
	"yinlink/internal/providers/wsgateway"
	"yinlink/internal/usecase"
)

// Services is the assembled client runtime graph.
type Services struct {
	Controller *usecase.CallController
	Media      *usecase.MediaControl
	Config     config.Config
}

// Build wires all client dependencies for the current runtime.
func Build(eventSink ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	var connector ports.MediaConnector
	switch cfg.Client.MediaProvider {
	case config.MediaProviderWS:
		connector = wsgateway.NewConnector(wsgateway.Config{})
	default:
		connector = livekitroom.NewConnector()
	}

	controller := usecase.NewCallController(
		tokenapi.NewClient(tokenapi.Config{Endpoint: cfg.Client.TokenEndpoint}),
		connector,
		eventSink,
		usecase.Config{MediaURL: cfg.Client.MediaURL},
	)

	return Services{
		Controller: controller,
		Media:      usecase.NewMediaControl(controller, eventSink),
		Config:     cfg,
	}, nil
}
