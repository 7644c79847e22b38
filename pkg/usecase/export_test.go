package usecase

import (
	"github.com/m-mizutani/ghsync/pkg/domain/model"
)

// Export unexported functions for testing
var (
	ListeningEventsForTest = listeningEvents
)

func (x *UseCase) CallbackURLForTest(binding *model.Binding) (string, error) {
	return x.callbackURL(binding)
}
