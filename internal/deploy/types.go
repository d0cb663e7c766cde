package deploy

import "github.com/goodnatureofminers/rafflekeeper/internal/model"

type Publisher interface {
	Publish(evt model.Event)
}
