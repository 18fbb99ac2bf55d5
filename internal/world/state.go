package world

import "fmt"

// State - жизненный цикл чанка. Значения упорядочены по серьёзности:
// более высокий уровень «грязности» удовлетворяет предикатам более низких.
type State uint8

const (
	StateUnloaded State = iota
	StateLoading
	StateActive
	StateDirtyMesh      // Нужна перестройка меша
	StateDirtyPhysics   // Нужен пересчёт физики
	StateDirtyStructure // Нужен структурный анализ
)

var stateNames = [...]string{
	StateUnloaded:       "unloaded",
	StateLoading:        "loading",
	StateActive:         "active",
	StateDirtyMesh:      "dirty_mesh",
	StateDirtyPhysics:   "dirty_physics",
	StateDirtyStructure: "dirty_structure",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// IsDirty возвращает true для любого из dirty-состояний
func (s State) IsDirty() bool {
	return s >= StateDirtyMesh
}

// ParseState разбирает строковое имя состояния (используется REST API)
func ParseState(name string) (State, bool) {
	for i, n := range stateNames {
		if n == name {
			return State(i), true
		}
	}
	return StateUnloaded, false
}

// MarshalText кодирует состояние именем (для JSON и YAML)
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText разбирает имя состояния
func (s *State) UnmarshalText(text []byte) error {
	parsed, ok := ParseState(string(text))
	if !ok {
		return fmt.Errorf("неизвестное состояние чанка %q", text)
	}
	*s = parsed
	return nil
}
