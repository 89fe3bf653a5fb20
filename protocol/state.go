// Copyright 2026 Blink Labs Software
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

package protocol

import (
	"sync"
)

type State struct {
	Id   uint
	Name string
}

func NewState(id uint, name string) State {
	return State{
		Id:   id,
		Name: name,
	}
}

func (s State) String() string {
	return s.Name
}

// StateTransition moves a role to NewState when Op completes
type StateTransition struct {
	Op       string
	NewState State
}

type StateMapEntry struct {
	Transitions []StateTransition
}

type StateMap map[State]StateMapEntry

// Copy returns a copy of the state map. This is mostly for convenience,
// since we need to copy the state map in various places
func (s StateMap) Copy() StateMap {
	ret := StateMap{}
	for k, v := range s {
		ret[k] = v
	}
	return ret
}

// StateMachine tracks the current state of a role and only allows the transitions
// listed in its state map
type StateMachine struct {
	mutex    sync.Mutex
	stateMap StateMap
	current  State
}

func NewStateMachine(stateMap StateMap, initial State) *StateMachine {
	return &StateMachine{
		stateMap: stateMap.Copy(),
		current:  initial,
	}
}

// Current returns the current state
func (m *StateMachine) Current() State {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.current
}

// Next returns the state Op would lead to, or a ValidationError if the current state does
// not allow it
func (m *StateMachine) Next(op string) (State, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.next(op)
}

// Transition moves to the state that follows Op
func (m *StateMachine) Transition(op string) (State, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	next, err := m.next(op)
	if err != nil {
		return m.current, err
	}
	m.current = next
	return next, nil
}

func (m *StateMachine) next(op string) (State, error) {
	entry, ok := m.stateMap[m.current]
	if ok {
		for _, transition := range entry.Transitions {
			if transition.Op == op {
				return transition.NewState, nil
			}
		}
	}
	return m.current, NewValidationError(
		op,
		"not allowed in state %s",
		m.current,
	)
}
