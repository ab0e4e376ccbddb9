package cache

const SetIfGenerationScript = setIfGeneration
