package game

import "math/rand"

var nameAdjectives = []string{
	"Quantum", "Neural", "Cosmic", "Digital", "Synthetic",
	"Atomic", "Cyber", "Hyper", "Nano", "Mega",
	"Turbo", "Stellar", "Astral", "Parallel", "Radiant",
	"Sentient", "Adaptive", "Dynamic", "Recursive", "Autonomous",
}

var nameNouns = []string{
	"Nexus", "Matrix", "Cortex", "Synapse", "Oracle",
	"Sentinel", "Guardian", "Titan", "Phoenix", "Voyager",
	"Explorer", "Pioneer", "Navigator", "Architect", "Catalyst",
	"Innovator", "Processor", "Analyzer", "Synthesizer", "Optimizer",
}

func randomName(r *rand.Rand) string {
	return nameAdjectives[r.Intn(len(nameAdjectives))] + " " + nameNouns[r.Intn(len(nameNouns))]
}
