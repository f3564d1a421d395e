// Package callstack analyzes a crash log's parsed call stack for structural
// signals: module concentration, recursion, and known-problematic patterns.
package callstack

import (
	"fmt"
	"strings"

	"scanner111/src/crashlog"
)

// knownProblematicModules are modules that, when heavily represented in a
// call stack, are themselves informative regardless of which signal list
// ultimately fires. Kept small and explicit rather than data-driven, matching
// how the rest of the analyzer set favors literal pattern tables.
var knownProblematicModules = map[string]bool{
	"ntdll.dll":      true,
	"kernelbase.dll": true,
	"d3d11.dll":      true,
	"d3dcompiler_47.dll": true,
}

// DepthStatistics summarizes how deep and how concentrated a call stack is.
type DepthStatistics struct {
	MaxDepth          int
	CriticalDepth     float64
	AverageModuleDepth float64
}

// PatternStatistics summarizes where a single pattern's occurrences fall
// across a call stack.
type PatternStatistics struct {
	TotalOccurrences       int
	FirstDepth             int
	LastDepth              int
	AverageDepth           float64
	ClusteringCoefficient  float64
}

// Cluster is a maximal contiguous run of frames sharing one module.
type Cluster struct {
	Module     string
	StartIndex int
	EndIndex   int
	Size       int
}

// Analysis is the full structural analysis of one call stack.
type Analysis struct {
	ModuleCounts      map[string]int
	PatternClusters   []Cluster
	PatternMatches    map[string][]int // pattern -> frame indices where matched
	RecursionDetected bool
	ProblemIndicators []string
	DepthStatistics   DepthStatistics
}

// Analyze computes the full structural analysis for a crash log's call
// stack. patterns is an optional list of substrings to track per-frame hits
// for (e.g. suspect function names); it may be nil.
func Analyze(log *crashlog.CrashLog, patterns []string) Analysis {
	frames := log.CallStack
	a := Analysis{
		ModuleCounts:   make(map[string]int),
		PatternMatches: make(map[string][]int),
	}

	for _, f := range frames {
		a.ModuleCounts[f.Module]++
	}

	a.PatternClusters = clusterByModule(frames)

	for _, p := range patterns {
		lp := strings.ToLower(p)
		for i, f := range frames {
			if strings.Contains(strings.ToLower(f.Module), lp) || strings.Contains(strings.ToLower(f.Function), lp) {
				a.PatternMatches[p] = append(a.PatternMatches[p], i)
			}
		}
	}

	a.RecursionDetected = detectRecursion(frames)
	a.ProblemIndicators = problemIndicators(frames, a.ModuleCounts)
	a.DepthStatistics = depthStatistics(frames, a.ModuleCounts)

	return a
}

func clusterByModule(frames []crashlog.StackFrame) []Cluster {
	var clusters []Cluster
	i := 0
	for i < len(frames) {
		j := i
		for j+1 < len(frames) && frames[j+1].Module == frames[i].Module {
			j++
		}
		if j-i+1 >= 2 {
			clusters = append(clusters, Cluster{
				Module:     frames[i].Module,
				StartIndex: i,
				EndIndex:   j,
				Size:       j - i + 1,
			})
		}
		i = j + 1
	}
	return clusters
}

// detectRecursion flags direct recursion (same function in >=3 adjacent
// frames) or indirect recursion (a repeating adjacent-pair of functions
// appearing >=2 times).
func detectRecursion(frames []crashlog.StackFrame) bool {
	run := 1
	for i := 1; i < len(frames); i++ {
		if frames[i].Function != "" && frames[i].Function == frames[i-1].Function {
			run++
			if run >= 3 {
				return true
			}
		} else {
			run = 1
		}
	}

	pairCounts := make(map[string]int)
	for i := 0; i+1 < len(frames); i++ {
		if frames[i].Function == "" || frames[i+1].Function == "" {
			continue
		}
		key := frames[i].Function + "->" + frames[i+1].Function
		pairCounts[key]++
		if pairCounts[key] >= 2 {
			return true
		}
	}
	return false
}

func problemIndicators(frames []crashlog.StackFrame, moduleCounts map[string]int) []string {
	var indicators []string

	for module, count := range moduleCounts {
		if knownProblematicModules[strings.ToLower(module)] && count >= 3 {
			indicators = append(indicators, fmt.Sprintf("known-problematic module %q occupies %d frames", module, count))
		}
	}

	if len(frames) > 0 {
		var dominant string
		var dominantCount int
		for module, count := range moduleCounts {
			if count > dominantCount {
				dominant, dominantCount = module, count
			}
		}
		if float64(dominantCount)/float64(len(frames)) > 0.6 {
			indicators = append(indicators, fmt.Sprintf("call stack dominated by %q (%d/%d frames)", dominant, dominantCount, len(frames)))
		}
	}

	if len(frames) > 100 {
		indicators = append(indicators, "deep call stack")
	}

	return indicators
}

func depthStatistics(frames []crashlog.StackFrame, moduleCounts map[string]int) DepthStatistics {
	stats := DepthStatistics{MaxDepth: len(frames)}
	stats.CriticalDepth = float64(stats.MaxDepth) * 0.75

	if len(moduleCounts) > 0 {
		var total int
		for _, c := range moduleCounts {
			total += c
		}
		stats.AverageModuleDepth = float64(total) / float64(len(moduleCounts))
	}
	return stats
}

// AnalyzePatternStatistics computes where a single pattern's occurrences
// fall within the call stack, including a clustering coefficient in [0,1]:
// higher means the occurrences are packed tightly together rather than
// spread evenly across the stack.
func AnalyzePatternStatistics(log *crashlog.CrashLog, pattern string) PatternStatistics {
	lp := strings.ToLower(pattern)
	var depths []int
	for i, f := range log.CallStack {
		if strings.Contains(strings.ToLower(f.Module), lp) || strings.Contains(strings.ToLower(f.Function), lp) {
			depths = append(depths, i)
		}
	}

	stats := PatternStatistics{TotalOccurrences: len(depths)}
	if len(depths) == 0 {
		return stats
	}

	stats.FirstDepth = depths[0]
	stats.LastDepth = depths[len(depths)-1]

	var sum int
	for _, d := range depths {
		sum += d
	}
	stats.AverageDepth = float64(sum) / float64(len(depths))

	if len(depths) == 1 {
		stats.ClusteringCoefficient = 0
		return stats
	}

	totalFrames := len(log.CallStack)
	expectedGap := float64(totalFrames-1) / float64(len(depths)-1)
	if expectedGap <= 0 {
		stats.ClusteringCoefficient = 0
		return stats
	}

	var gapSum float64
	for i := 1; i < len(depths); i++ {
		gapSum += float64(depths[i] - depths[i-1])
	}
	meanGap := gapSum / float64(len(depths)-1)
	normalizedMeanGap := meanGap / expectedGap

	coefficient := 1 - normalizedMeanGap
	if coefficient < 0 {
		coefficient = 0
	}
	if coefficient > 1 {
		coefficient = 1
	}
	stats.ClusteringCoefficient = coefficient
	return stats
}

// FindOrderedSequence reports whether each pattern in patterns appears in
// frames at a strictly increasing frame index, i.e. the patterns occur in
// the given order (not necessarily adjacent).
func FindOrderedSequence(frames []crashlog.StackFrame, patterns []string) bool {
	lastIndex := -1
	for _, p := range patterns {
		lp := strings.ToLower(p)
		found := -1
		for i := lastIndex + 1; i < len(frames); i++ {
			if strings.Contains(strings.ToLower(frames[i].Module), lp) || strings.Contains(strings.ToLower(frames[i].Function), lp) {
				found = i
				break
			}
		}
		if found == -1 {
			return false
		}
		lastIndex = found
	}
	return true
}
