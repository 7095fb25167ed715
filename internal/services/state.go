package services

// State is a stage of one automation run. Runs move through the states in
// declaration order; a degraded step still advances to the next state.
type State string

const (
	StateAwaitingInput             State = "awaiting_input"
	StateDataLoaded                State = "data_loaded"
	StateBrowserLaunched           State = "browser_launched"
	StateLoggedIn                  State = "logged_in"
	StateMenuNavigated             State = "menu_navigated"
	StateFormWindowActive          State = "form_window_active"
	StateFieldsPopulated           State = "fields_populated"
	StateAwaitingHumanConfirmation State = "awaiting_human_confirmation"
	StateClosed                    State = "closed"
)

// States lists every state in order.
var States = []State{
	StateAwaitingInput,
	StateDataLoaded,
	StateBrowserLaunched,
	StateLoggedIn,
	StateMenuNavigated,
	StateFormWindowActive,
	StateFieldsPopulated,
	StateAwaitingHumanConfirmation,
	StateClosed,
}
