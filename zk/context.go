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

// Package zk provides the default proving backend for license sessions: a Groth16
// circuit over BN254 built with gnark, plus the native MiMC hashing and Merkle tree
// that the circuit mirrors.
//
// Setup is expensive. Build one Context per process and share it; it is read-only
// after Setup returns and safe for concurrent use.
package zk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

var ErrProofRejected = errors.New("proof rejected")

// PublicWitness holds the public inputs of the session circuit
type PublicWitness struct {
	Root      Element
	SessionID Element
	Challenge Element
	Attribute Element
}

// Witness holds every input of the session circuit
type Witness struct {
	PublicWitness
	Secret Element
	Path   Path
}

// Context holds the compiled session circuit with its proving and verifying keys
type Context struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
	vk  groth16.VerifyingKey
}

// Setup compiles the session circuit and runs the Groth16 setup. Call it once and reuse
// the result
func Setup() (*Context, error) {
	ccs, err := compile()
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("groth16 setup: %w", err)
	}
	return &Context{
		ccs: ccs,
		pk:  pk,
		vk:  vk,
	}, nil
}

// Load compiles the session circuit and reads the keys written by WriteKeys. Proofs only
// verify against the keys they were made with, so every party must load the same pair
func Load(pkReader io.Reader, vkReader io.Reader) (*Context, error) {
	ccs, err := compile()
	if err != nil {
		return nil, err
	}
	pk := groth16.NewProvingKey(ecc.BN254)
	if _, err := pk.ReadFrom(pkReader); err != nil {
		return nil, fmt.Errorf("read proving key: %w", err)
	}
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(vkReader); err != nil {
		return nil, fmt.Errorf("read verifying key: %w", err)
	}
	return &Context{
		ccs: ccs,
		pk:  pk,
		vk:  vk,
	}, nil
}

// WriteKeys serializes the proving and verifying keys
func (c *Context) WriteKeys(pkWriter io.Writer, vkWriter io.Writer) error {
	if _, err := c.pk.WriteTo(pkWriter); err != nil {
		return fmt.Errorf("write proving key: %w", err)
	}
	if _, err := c.vk.WriteTo(vkWriter); err != nil {
		return fmt.Errorf("write verifying key: %w", err)
	}
	return nil
}

func compile() (constraint.ConstraintSystem, error) {
	var circuit SessionCircuit
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, fmt.Errorf("compile session circuit: %w", err)
	}
	return ccs, nil
}

// Prove computes a serialized Groth16 proof for the witness
func (c *Context) Prove(ctx context.Context, w Witness) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.Path.Root != w.Root {
		return nil, errors.New("path root does not match public root")
	}
	assignment := w.assignment()
	fullWitness, err := frontend.NewWitness(&assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("build witness: %w", err)
	}
	proof, err := groth16.Prove(c.ccs, c.pk, fullWitness)
	if err != nil {
		return nil, fmt.Errorf("prove: %w", err)
	}
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize proof: %w", err)
	}
	return buf.Bytes(), nil
}

// Verify checks a serialized proof against the public inputs
func (c *Context) Verify(proofBytes []byte, pub PublicWitness) error {
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return fmt.Errorf("deserialize proof: %w", err)
	}
	publicWitness, err := pub.witness()
	if err != nil {
		return err
	}
	if err := groth16.Verify(proof, c.vk, publicWitness); err != nil {
		return fmt.Errorf("%w: %w", ErrProofRejected, err)
	}
	return nil
}

func (p PublicWitness) witness() (witness.Witness, error) {
	assignment := SessionCircuit{
		Root:      p.Root.BigInt(),
		SessionID: p.SessionID.BigInt(),
		Challenge: p.Challenge.BigInt(),
		Attribute: p.Attribute.BigInt(),
		Secret:    0,
	}
	for i := range TreeDepth {
		assignment.Siblings[i] = 0
		assignment.PathBits[i] = 0
	}
	ret, err := frontend.NewWitness(
		&assignment,
		ecc.BN254.ScalarField(),
		frontend.PublicOnly(),
	)
	if err != nil {
		return nil, fmt.Errorf("build public witness: %w", err)
	}
	return ret, nil
}

func (w Witness) assignment() SessionCircuit {
	ret := SessionCircuit{
		Root:      w.Root.BigInt(),
		SessionID: w.SessionID.BigInt(),
		Challenge: w.Challenge.BigInt(),
		Attribute: w.Attribute.BigInt(),
		Secret:    w.Secret.BigInt(),
	}
	for i := range TreeDepth {
		ret.Siblings[i] = w.Path.Siblings[i].BigInt()
		ret.PathBits[i] = big.NewInt(int64((w.Path.Position >> i) & 1))
	}
	return ret
}
